package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkToMarket(t *testing.T) {
	opened := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	pos := &Position{
		InstrumentID: "KXNBA-GAME1",
		EntryPrice:   54,
		Size:         100,
		Status:       PositionStatusOpen,
		OpenedAt:     opened,
	}

	marked := opened.Add(2 * time.Minute)
	pos.MarkToMarket(58, marked)

	assert.Equal(t, 58.0, pos.CurrentPrice)
	assert.Equal(t, marked, pos.MarkedAt)
	assert.InDelta(t, 4.0, pos.UnrealizedPL, 1e-9)
	assert.Equal(t, 2*time.Minute, pos.HeldFor(marked))
}
