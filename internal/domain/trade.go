package domain

import "time"

// TradeRecord is one completed round trip: entry, exit, and the money that
// moved. NetPL is exactly GrossPL minus Fees; IsWinner means strictly
// positive NetPL, so a fee-only loss on a flat price is not a win.
type TradeRecord struct {
	ID           string
	RunID        string
	InstrumentID string
	StrategyID   string
	EntryTime    time.Time
	ExitTime     time.Time
	EntryPrice   float64
	ExitPrice    float64
	Size         int
	GrossPL      float64
	Fees         float64
	NetPL        float64
	IsWinner     bool
	IsExpiration bool
}
