package domain

import "time"

// PositionStatus tracks whether a position is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is an open holding of binary contracts. Positions are always long
// the contract they buy; fading an up-move means buying the complementary
// side, which the strategy layer expresses before the position reaches here.
type Position struct {
	ID           string
	InstrumentID string
	StrategyID   string
	EntryPrice   float64
	CurrentPrice float64
	Size         int // number of contracts
	EntryFee     float64
	UnrealizedPL float64
	Status       PositionStatus
	OpenedAt     time.Time
	MarkedAt     time.Time
	ClosedAt     *time.Time
	ExitPrice    *float64
}

// MarkToMarket updates the position's current price, last mark time, and
// unrealized P/L in dollars, gross of the eventual exit fee.
func (p *Position) MarkToMarket(price float64, ts time.Time) {
	p.CurrentPrice = price
	p.MarkedAt = ts
	p.UnrealizedPL = (price - p.EntryPrice) * float64(p.Size) / 100
}

// HeldFor reports how long the position has been open as of ts.
func (p *Position) HeldFor(ts time.Time) time.Duration {
	return ts.Sub(p.OpenedAt)
}
