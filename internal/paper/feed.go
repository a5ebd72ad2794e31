package paper

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alanyoungcy/fadebot/internal/platform/kalshi"
)

// Feed bridges the Kalshi ticker websocket to the engine's tick channel.
type Feed struct {
	ws     *kalshi.WSClient
	ticks  chan Tick
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewFeed creates a feed over the given websocket client. The channel is
// buffered so a slow decision never stalls the websocket read loop; if the
// buffer fills, ticks are dropped (minute aggregation absorbs the loss).
func NewFeed(ws *kalshi.WSClient, logger *slog.Logger) *Feed {
	f := &Feed{
		ws:     ws,
		ticks:  make(chan Tick, 1024),
		logger: logger.With(slog.String("component", "feed")),
	}
	ws.OnTicker(f.handleTicker)
	return f
}

// Start connects and subscribes to the given instruments.
func (f *Feed) Start(ctx context.Context, instruments []string) error {
	if err := f.ws.Connect(ctx); err != nil {
		return err
	}
	if err := f.ws.Subscribe(ctx, instruments); err != nil {
		return err
	}
	f.logger.Info("ticker feed started", slog.Int("instruments", len(instruments)))
	return nil
}

// Ticks returns the stream consumed by the engine.
func (f *Feed) Ticks() <-chan Tick { return f.ticks }

// Close shuts down the websocket and the tick stream.
func (f *Feed) Close() error {
	err := f.ws.Close()

	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.ticks)
	}
	f.mu.Unlock()
	return err
}

func (f *Feed) handleTicker(t kalshi.WSTicker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.ticks <- Tick{InstrumentID: t.Ticker, Price: t.Price, TS: t.Time()}:
	default:
		f.logger.Warn("tick buffer full, dropping", slog.String("instrument", t.Ticker))
	}
}
