package strategy

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHistoryMovePct(t *testing.T) {
	h := NewHistory(minuteCloses(50, 52, 54), 2)

	move, ok := h.MovePct(1)
	assert.True(t, ok)
	assert.InDelta(t, (54.0-52.0)/52.0*100, move, 1e-9)

	move, ok = h.MovePct(2)
	assert.True(t, ok)
	assert.InDelta(t, 8.0, move, 1e-9)

	_, ok = h.MovePct(3)
	assert.False(t, ok)
}

func TestHistoryZeroBase(t *testing.T) {
	h := NewHistory(minuteCloses(0, 54), 1)
	_, ok := h.MovePct(1)
	assert.False(t, ok)
}

func TestHistoryHidesFuture(t *testing.T) {
	candles := minuteCloses(50, 54, 60, 70)
	h := NewHistory(candles, 1)

	assert.Equal(t, 54.0, h.Current().Close)
	assert.Equal(t, 2, h.Len())

	// Offsets only reach backwards.
	_, ok := h.At(-1)
	assert.False(t, ok)
	prev, ok := h.At(1)
	assert.True(t, ok)
	assert.Equal(t, 50.0, prev.Close)
}

func TestHistoryVolatility(t *testing.T) {
	h := NewHistory(minuteCloses(50, 50, 50), 2)
	assert.InDelta(t, 0, h.Volatility(3), 1e-12)

	// Closes 48, 52: mean 50, population std 2.
	h = NewHistory(minuteCloses(48, 52), 1)
	assert.InDelta(t, 2, h.Volatility(2), 1e-9)

	// Single observation.
	h = NewHistory(minuteCloses(48, 52), 0)
	assert.InDelta(t, 0, h.Volatility(5), 1e-12)
}
