package paper

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
	"github.com/alanyoungcy/fadebot/internal/ledger"
	"github.com/alanyoungcy/fadebot/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingTradeStore struct {
	records []domain.TradeRecord
}

func (s *recordingTradeStore) InsertBatch(_ context.Context, records []domain.TradeRecord) error {
	s.records = append(s.records, records...)
	return nil
}

func (s *recordingTradeStore) ListByStrategy(context.Context, string, domain.ListOpts) ([]domain.TradeRecord, error) {
	return s.records, nil
}

func (s *recordingTradeStore) ListByRun(context.Context, string, domain.ListOpts) ([]domain.TradeRecord, error) {
	return s.records, nil
}

func newTestEngine(t *testing.T, store domain.TradeLogStore) *Engine {
	t.Helper()
	logger := discardLogger()
	rule := strategy.NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      2,
	})
	tracker := strategy.NewTracker(nil, 120, logger)
	led := ledger.New(fees.Default(), logger)
	return NewEngine(rule, tracker, led, store, nil, 100, logger)
}

// ticksForCloses emits one tick per minute so each new tick seals the
// previous minute.
func ticksForCloses(instrument string, closes []float64) []Tick {
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	out := make([]Tick, 0, len(closes))
	for i, p := range closes {
		out = append(out, Tick{
			InstrumentID: instrument,
			Price:        p,
			TS:           base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestPaperEntryAndTimedExit(t *testing.T) {
	store := &recordingTradeStore{}
	e := newTestEngine(t, store)

	// Sealed closes become 50, 50, 54 (entry), 54, 54 (exit after 2 min).
	ticks := ticksForCloses("KXNBA-GAME1", []float64{50, 50, 54, 54, 54, 54, 54})

	ch := make(chan Tick, len(ticks))
	for _, tk := range ticks {
		ch <- tk
	}
	close(ch)

	err := e.Run(context.Background(), ch)
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, e.RunID(), rec.RunID)
	assert.Equal(t, 54.0, rec.EntryPrice)
	assert.Equal(t, 54.0, rec.ExitPrice)
	assert.InDelta(t, -3.4776, rec.NetPL, 1e-9)
	assert.False(t, rec.IsWinner)
}

func TestPaperNoEntryWithoutMove(t *testing.T) {
	store := &recordingTradeStore{}
	e := newTestEngine(t, store)

	ticks := ticksForCloses("KXNBA-GAME1", []float64{50, 50, 51, 51, 51, 51})
	ch := make(chan Tick, len(ticks))
	for _, tk := range ticks {
		ch <- tk
	}
	close(ch)

	require.NoError(t, e.Run(context.Background(), ch))
	assert.Empty(t, store.records)
}

func TestPaperStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan Tick)
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, ch) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop on cancel")
	}
}
