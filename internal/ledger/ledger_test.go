package ledger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return New(fees.Default(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var t0 = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func TestOpenChargesEntryFee(t *testing.T) {
	l := newTestLedger(t)

	pos, err := l.Open("KXNBA-GAME1", "band_1-99_move_5_hold_3", 54, 100, t0)
	require.NoError(t, err)
	assert.InDelta(t, 0.07*100*0.54*0.46, pos.EntryFee, 1e-12)
	assert.Equal(t, domain.PositionStatusOpen, pos.Status)

	got, ok := l.GetOpen("KXNBA-GAME1", "band_1-99_move_5_hold_3")
	require.True(t, ok)
	assert.Equal(t, pos.ID, got.ID)
}

func TestOpenRejectsDuplicate(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Open("inst", "strat", 50, 100, t0)
	require.NoError(t, err)

	_, err = l.Open("inst", "strat", 60, 100, t0.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrDuplicatePosition)

	// Same instrument under a different strategy is fine.
	_, err = l.Open("inst", "other", 60, 100, t0.Add(time.Minute))
	assert.NoError(t, err)
}

func TestCloseRoundTrip(t *testing.T) {
	l := newTestLedger(t)

	pos, err := l.Open("inst", "strat", 54, 100, t0)
	require.NoError(t, err)

	rec, err := l.Close(pos.ID, 54, t0.Add(3*time.Minute))
	require.NoError(t, err)

	// Flat price: zero gross, round-trip fees only.
	assert.InDelta(t, 0, rec.GrossPL, 1e-12)
	assert.InDelta(t, 3.4776, rec.Fees, 1e-9)
	assert.InDelta(t, -3.4776, rec.NetPL, 1e-9)
	assert.False(t, rec.IsWinner)
	assert.False(t, rec.IsExpiration)

	_, ok := l.GetOpen("inst", "strat")
	assert.False(t, ok)
}

func TestCloseSignConvention(t *testing.T) {
	l := newTestLedger(t)

	// Entry at 6, exit at 5, 100 contracts: gross is exactly -$1.00.
	pos, err := l.Open("inst", "strat", 6, 100, t0)
	require.NoError(t, err)

	rec, err := l.Close(pos.ID, 5, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, -1.00, rec.GrossPL, 1e-12)
	assert.InDelta(t, rec.GrossPL-rec.Fees, rec.NetPL, 1e-9)
	assert.False(t, rec.IsWinner)
}

func TestCloseUnknownPosition(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Close("no-such-id", 50, t0)
	assert.ErrorIs(t, err, domain.ErrUnknownPosition)

	pos, err := l.Open("inst", "strat", 50, 100, t0)
	require.NoError(t, err)
	_, err = l.Close(pos.ID, 55, t0.Add(time.Minute))
	require.NoError(t, err)

	// Second close of the same position is rejected.
	_, err = l.Close(pos.ID, 60, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, domain.ErrUnknownPosition)
}

func TestCloseAtExpirationSkipsExitFee(t *testing.T) {
	l := newTestLedger(t)

	pos, err := l.Open("inst", "strat", 80, 100, t0)
	require.NoError(t, err)
	entryFee := pos.EntryFee

	// Settlement at 100 would be rejected as a fill price; at expiration it
	// is a resolution value and carries no fee.
	rec, err := l.CloseAtExpiration(pos.ID, 100, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.True(t, rec.IsExpiration)
	assert.InDelta(t, entryFee, rec.Fees, 1e-12)
	assert.InDelta(t, 20.0, rec.GrossPL, 1e-12)
	assert.InDelta(t, 20.0-entryFee, rec.NetPL, 1e-12)
	assert.True(t, rec.IsWinner)
}

func TestNetPLConservation(t *testing.T) {
	l := newTestLedger(t)

	prices := []struct{ entry, exit float64 }{
		{50, 55}, {30, 29}, {80, 80}, {10, 40},
	}
	for i, p := range prices {
		pos, err := l.Open("inst", "strat", p.entry, 100, t0.Add(time.Duration(2*i)*time.Minute))
		require.NoError(t, err)
		rec, err := l.Close(pos.ID, p.exit, t0.Add(time.Duration(2*i+1)*time.Minute))
		require.NoError(t, err)
		assert.InDelta(t, rec.GrossPL-rec.Fees, rec.NetPL, 1e-9)
	}
}
