// Package ledger tracks open positions and produces trade records on close.
// It is the single source of truth for position accounting: entry and exit
// fees, gross and net P/L, and the one-open-position-per-instrument rule.
package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
)

// Ledger owns the open position set for one evaluation. It is not safe for
// concurrent use; each engine or grid worker owns its own instance.
type Ledger struct {
	schedule fees.Schedule
	logger   *slog.Logger
	open     map[string]*domain.Position // keyed by instrument|strategy
	byID     map[string]*domain.Position
}

// New creates an empty ledger with the given fee schedule.
func New(schedule fees.Schedule, logger *slog.Logger) *Ledger {
	return &Ledger{
		schedule: schedule,
		logger:   logger.With(slog.String("component", "ledger")),
		open:     make(map[string]*domain.Position),
		byID:     make(map[string]*domain.Position),
	}
}

func key(instrumentID, strategyID string) string {
	return instrumentID + "|" + strategyID
}

// Open creates a position of size contracts at price. The entry fee is
// charged immediately at the taker rate. A second open for the same
// (instrument, strategy) pair fails with ErrDuplicatePosition.
func (l *Ledger) Open(instrumentID, strategyID string, price float64, size int, ts time.Time) (*domain.Position, error) {
	k := key(instrumentID, strategyID)
	if _, exists := l.open[k]; exists {
		return nil, fmt.Errorf("ledger: open %s: %w", k, domain.ErrDuplicatePosition)
	}

	entryFee, err := l.schedule.Fee(size, price, true)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", k, err)
	}

	pos := &domain.Position{
		ID:           uuid.NewString(),
		InstrumentID: instrumentID,
		StrategyID:   strategyID,
		EntryPrice:   price,
		CurrentPrice: price,
		Size:         size,
		EntryFee:     entryFee,
		Status:       domain.PositionStatusOpen,
		OpenedAt:     ts,
	}
	l.open[k] = pos
	l.byID[pos.ID] = pos
	return pos, nil
}

// Close exits the position at exitPrice, charging a taker exit fee.
func (l *Ledger) Close(positionID string, exitPrice float64, ts time.Time) (domain.TradeRecord, error) {
	return l.close(positionID, exitPrice, ts, false)
}

// CloseAtExpiration settles the position at the given value with no exit
// fee; expiring contracts resolve without a closing fill.
func (l *Ledger) CloseAtExpiration(positionID string, settleValue float64, ts time.Time) (domain.TradeRecord, error) {
	return l.close(positionID, settleValue, ts, true)
}

func (l *Ledger) close(positionID string, exitPrice float64, ts time.Time, expiration bool) (domain.TradeRecord, error) {
	pos, ok := l.byID[positionID]
	if !ok || pos.Status != domain.PositionStatusOpen {
		return domain.TradeRecord{}, fmt.Errorf("ledger: close %s: %w", positionID, domain.ErrUnknownPosition)
	}

	totalFees := pos.EntryFee
	if !expiration {
		exitFee, err := l.schedule.Fee(pos.Size, exitPrice, true)
		if err != nil {
			return domain.TradeRecord{}, fmt.Errorf("ledger: close %s: %w", positionID, err)
		}
		totalFees += exitFee
	}

	grossPL := (exitPrice - pos.EntryPrice) * float64(pos.Size) / 100
	netPL := grossPL - totalFees

	pos.Status = domain.PositionStatusClosed
	pos.ClosedAt = &ts
	pos.ExitPrice = &exitPrice
	delete(l.open, key(pos.InstrumentID, pos.StrategyID))
	delete(l.byID, positionID)

	rec := domain.TradeRecord{
		ID:           uuid.NewString(),
		InstrumentID: pos.InstrumentID,
		StrategyID:   pos.StrategyID,
		EntryTime:    pos.OpenedAt,
		ExitTime:     ts,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    exitPrice,
		Size:         pos.Size,
		GrossPL:      grossPL,
		Fees:         totalFees,
		NetPL:        netPL,
		IsWinner:     netPL > 0,
		IsExpiration: expiration,
	}
	l.logger.Debug("position closed",
		slog.String("instrument", rec.InstrumentID),
		slog.String("strategy", rec.StrategyID),
		slog.Float64("net_pl", rec.NetPL),
		slog.Bool("expiration", expiration),
	)
	return rec, nil
}

// GetOpen returns the open position for the pair, if any.
func (l *Ledger) GetOpen(instrumentID, strategyID string) (*domain.Position, bool) {
	pos, ok := l.open[key(instrumentID, strategyID)]
	return pos, ok
}

// OpenPositions returns all currently open positions.
func (l *Ledger) OpenPositions() []*domain.Position {
	out := make([]*domain.Position, 0, len(l.open))
	for _, pos := range l.open {
		out = append(out, pos)
	}
	return out
}
