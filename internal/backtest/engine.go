// Package backtest replays minute-candle series through a policy and a
// ledger, producing the trade records everything downstream consumes.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
	"github.com/alanyoungcy/fadebot/internal/ledger"
	"github.com/alanyoungcy/fadebot/internal/strategy"
)

// Engine evaluates one policy against candle series. Engines are cheap and
// stateless between runs; grid-search workers each construct their own.
type Engine struct {
	schedule  fees.Schedule
	contracts int
	logger    *slog.Logger
}

// New creates an engine trading the given contract count per position.
func New(schedule fees.Schedule, contracts int, logger *slog.Logger) (*Engine, error) {
	if contracts <= 0 {
		return nil, fmt.Errorf("backtest: %d contracts: %w", contracts, domain.ErrInvalidPrice)
	}
	return &Engine{
		schedule:  schedule,
		contracts: contracts,
		logger:    logger.With(slog.String("component", "backtest")),
	}, nil
}

// Run replays one series through the policy. Each minute the open position
// (if any) is marked to market and offered an exit before any entry is
// considered, so a single minute never both closes and reopens. A position
// still open after the last candle is settled as an expiration close. The
// policy only ever sees candles up to the current minute.
func (e *Engine) Run(series domain.Series, pol strategy.Policy) ([]domain.TradeRecord, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	led := ledger.New(e.schedule, e.logger)
	var records []domain.TradeRecord

	for i := range series.Candles {
		c := series.Candles[i]
		h := strategy.NewHistory(series.Candles, i)

		if pos, ok := led.GetOpen(series.InstrumentID, pol.Name()); ok {
			pos.MarkToMarket(c.Close, c.TS)
			if !pol.ShouldExit(pos, h) {
				continue
			}
			rec, err := e.closeAt(led, pos.ID, c.Close, series, i)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
			// Exit has priority over entry; no re-entry this minute.
			continue
		}

		if !pol.ShouldEnter(h) {
			continue
		}
		if _, err := led.Open(series.InstrumentID, pol.Name(), c.Close, e.contracts, c.TS); err != nil {
			if errors.Is(err, domain.ErrInvalidPrice) {
				// Price pinned at a bound is not fillable; skip the minute.
				continue
			}
			return nil, fmt.Errorf("backtest: %s minute %d: %w", series.InstrumentID, i, err)
		}
	}

	if pos, ok := led.GetOpen(series.InstrumentID, pol.Name()); ok {
		last := series.Candles[len(series.Candles)-1]
		rec, err := led.CloseAtExpiration(pos.ID, series.ExpirationPrice(), last.TS)
		if err != nil {
			return nil, fmt.Errorf("backtest: %s expiration close: %w", series.InstrumentID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// closeAt closes the open position at the minute's close. A price pinned at
// 0 or 100 cannot fill, so the position settles at that value with
// expiration semantics instead of erroring out of the run.
func (e *Engine) closeAt(led *ledger.Ledger, positionID string, price float64, series domain.Series, minute int) (domain.TradeRecord, error) {
	ts := series.Candles[minute].TS
	if price <= 0 || price >= 100 {
		return led.CloseAtExpiration(positionID, price, ts)
	}
	rec, err := led.Close(positionID, price, ts)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("backtest: %s minute %d: %w", series.InstrumentID, minute, err)
	}
	return rec, nil
}

// RunAll replays every series through the policy. Instruments with malformed
// series are logged and skipped; one bad export never sinks the rest of the
// set. Records come back in input order.
func (e *Engine) RunAll(ctx context.Context, seriesSet []domain.Series, pol strategy.Policy) ([]domain.TradeRecord, error) {
	var records []domain.TradeRecord
	for _, s := range seriesSet {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := e.Run(s, pol)
		if err != nil {
			if errors.Is(err, domain.ErrSeriesOrder) || errors.Is(err, domain.ErrEmptySeries) {
				e.logger.Warn("skipping instrument",
					slog.String("instrument", s.InstrumentID),
					slog.String("error", err.Error()),
				)
				continue
			}
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}
