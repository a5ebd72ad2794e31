package strategy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Tracker aggregates live tick prices into minute candles per instrument so
// the same policies that run over historical series can run in paper mode.
// Finished minutes are appended to the instrument's rolling window; the
// latest tick is mirrored into the price cache for dashboards and restarts.
type Tracker struct {
	prices  domain.PriceCache
	logger  *slog.Logger
	window  int // max candles retained per instrument
	mu      sync.RWMutex
	candles map[string][]domain.Candle
	current map[string]*domain.Candle
}

// NewTracker creates a Tracker retaining up to window finished minute candles
// per instrument.
func NewTracker(prices domain.PriceCache, window int, logger *slog.Logger) *Tracker {
	return &Tracker{
		prices:  prices,
		logger:  logger.With(slog.String("component", "tracker")),
		window:  window,
		candles: make(map[string][]domain.Candle),
		current: make(map[string]*domain.Candle),
	}
}

// Track records a tick. When the tick falls into a new minute, the previous
// minute's candle is sealed and appended to the window. It returns true when
// a minute was sealed, which is the paper engine's cue to run policies.
func (t *Tracker) Track(ctx context.Context, instrumentID string, price float64, ts time.Time) bool {
	minute := ts.Truncate(time.Minute)

	t.mu.Lock()
	sealed := false
	cur := t.current[instrumentID]
	switch {
	case cur == nil:
		t.current[instrumentID] = &domain.Candle{
			InstrumentID: instrumentID,
			TS:           minute,
			Open:         price, High: price, Low: price, Close: price,
			Volume: 1,
		}
	case minute.After(cur.TS):
		t.candles[instrumentID] = append(t.candles[instrumentID], *cur)
		if n := len(t.candles[instrumentID]); n > t.window {
			t.candles[instrumentID] = t.candles[instrumentID][n-t.window:]
		}
		t.current[instrumentID] = &domain.Candle{
			InstrumentID: instrumentID,
			TS:           minute,
			Open:         price, High: price, Low: price, Close: price,
			Volume: 1,
		}
		sealed = true
	default:
		cur.Close = price
		if price > cur.High {
			cur.High = price
		}
		if price < cur.Low {
			cur.Low = price
		}
		cur.Volume++
	}
	t.mu.Unlock()

	if t.prices != nil {
		if err := t.prices.SetPrice(ctx, instrumentID, price, ts); err != nil {
			t.logger.Warn("price cache write failed",
				slog.String("instrument", instrumentID),
				slog.String("error", err.Error()),
			)
		}
	}
	return sealed
}

// History returns the observable window for the instrument with the latest
// sealed minute as the decision minute. ok is false until at least one
// minute has been sealed.
func (t *Tracker) History(instrumentID string) (History, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	window := t.candles[instrumentID]
	if len(window) == 0 {
		return History{}, false
	}
	out := make([]domain.Candle, len(window))
	copy(out, window)
	return NewHistory(out, len(out)-1), true
}

// Instruments returns the instruments with at least one sealed candle.
func (t *Tracker) Instruments() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.candles))
	for id := range t.candles {
		out = append(out, id)
	}
	return out
}
