package source

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

const header = "timestamp,open,high,low,close,volume\n"

func TestLoadSeries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KXNBA-GAME1.csv", header+
		"2026-03-14T19:00:00Z,50,51,49,50,12\n"+
		"2026-03-14T19:01:00Z,50,55,50,54,30\n")

	l := NewLoader(dir, discardLogger())
	s, err := l.LoadSeries(filepath.Join(dir, "KXNBA-GAME1.csv"))
	require.NoError(t, err)

	assert.Equal(t, "KXNBA-GAME1", s.InstrumentID)
	require.Len(t, s.Candles, 2)
	assert.Equal(t, 54.0, s.Candles[1].Close)
	assert.Equal(t, int64(30), s.Candles[1].Volume)
	assert.Equal(t, time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC), s.Candles[0].TS)
}

func TestLoadSeriesUnixTimestamps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inst.csv", header+
		"1773514800,50,50,50,50,1\n"+
		"1773514860,54,54,54,54,1\n")

	l := NewLoader(dir, discardLogger())
	s, err := l.LoadSeries(filepath.Join(dir, "inst.csv"))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.Candles[1].TS.Sub(s.Candles[0].TS))
}

func TestLoadSeriesRejectsDisorder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inst.csv", header+
		"2026-03-14T19:01:00Z,50,50,50,50,1\n"+
		"2026-03-14T19:00:00Z,54,54,54,54,1\n")

	l := NewLoader(dir, discardLogger())
	_, err := l.LoadSeries(filepath.Join(dir, "inst.csv"))
	assert.ErrorIs(t, err, domain.ErrSeriesOrder)
}

func TestFillGaps(t *testing.T) {
	base := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	s := domain.Series{
		InstrumentID: "inst",
		Candles: []domain.Candle{
			{InstrumentID: "inst", TS: base, Close: 50, Open: 50, High: 50, Low: 50, Volume: 3},
			{InstrumentID: "inst", TS: base.Add(3 * time.Minute), Close: 54, Open: 54, High: 54, Low: 54, Volume: 5},
		},
	}

	filled := FillGaps(s)
	require.Len(t, filled.Candles, 4)
	// Synthetic minutes carry the prior close with zero volume.
	assert.Equal(t, 50.0, filled.Candles[1].Close)
	assert.Equal(t, int64(0), filled.Candles[1].Volume)
	assert.Equal(t, base.Add(time.Minute), filled.Candles[1].TS)
	assert.Equal(t, base.Add(2*time.Minute), filled.Candles[2].TS)
	assert.Equal(t, 54.0, filled.Candles[3].Close)
	assert.NoError(t, filled.Validate())
}

func TestLoadAllSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.csv", header+
		"2026-03-14T19:00:00Z,50,50,50,50,1\n"+
		"2026-03-14T19:01:00Z,54,54,54,54,1\n")
	writeFile(t, dir, "broken.csv", header+"not-a-timestamp,50,50,50,50,1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	l := NewLoader(dir, discardLogger())
	all, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "good", all[0].InstrumentID)
}

func TestLoadAllAppliesSettlements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "inst.csv", header+
		"2026-03-14T19:00:00Z,50,50,50,50,1\n"+
		"2026-03-14T19:01:00Z,54,54,54,54,1\n")
	writeFile(t, dir, "settlements.csv", "instrument,value\ninst,100\n")

	l := NewLoader(dir, discardLogger())
	all, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].Settlement)
	assert.Equal(t, 100.0, *all[0].Settlement)
	assert.Equal(t, 100.0, all[0].ExpirationPrice())
}
