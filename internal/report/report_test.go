package report

import (
	"bytes"
	"encoding/csv"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

func TestWriteTradeLogCSV(t *testing.T) {
	dir := t.TempDir()
	entry := time.Date(2026, 3, 14, 15, 2, 0, 0, time.UTC)

	path, err := WriteTradeLogCSV(dir, "run-1", []domain.TradeRecord{{
		ID:           "t-1",
		InstrumentID: "INXD-26MAR14",
		StrategyID:   "band_1-99_move_5_hold_3",
		EntryTime:    entry,
		ExitTime:     entry.Add(3 * time.Minute),
		EntryPrice:   54,
		ExitPrice:    54,
		Size:         100,
		Fees:         3.4776,
		NetPL:        -3.4776,
	}})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "run-1_trade_log.csv"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "-3.4776", rows[1][10])
}

func TestWriteMetricsCSVHandlesNaN(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMetricsCSV(dir, "run-1", []domain.StrategyMetrics{{
		StrategyID: "band_90-95_move_20_hold_2",
		Trades:     0,
		WinRate:    math.NaN(),
		PValue:     math.NaN(),
		Degenerate: true,
	}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NaN", rows[1][3])
	assert.Equal(t, "true", rows[1][22])
}

func TestRankOrdersByMeanNetPL(t *testing.T) {
	metrics := []domain.StrategyMetrics{
		{StrategyID: "a", MeanNetPL: 1.5},
		{StrategyID: "b", MeanNetPL: math.NaN(), Degenerate: true},
		{StrategyID: "c", MeanNetPL: 3.0},
		{StrategyID: "d", MeanNetPL: -2.0},
	}

	ranked := Rank(metrics)
	require.Len(t, ranked, 4)
	assert.Equal(t, "c", ranked[0].StrategyID)
	assert.Equal(t, "a", ranked[1].StrategyID)
	assert.Equal(t, "d", ranked[2].StrategyID)
	assert.Equal(t, "b", ranked[3].StrategyID)
}

func TestPrintMetrics(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, 2)

	c.PrintMetrics("run-1", []domain.StrategyMetrics{
		{StrategyID: "band_1-5_move_20_hold_3", Trades: 40, WinRate: 0.65, MeanNetPL: 2.1,
			PValue: 0.0003, PAdjusted: 0.006, BonferroniSignificant: true, FDRSignificant: true},
		{StrategyID: "band_95-99_move_25_hold_5", Trades: 18, WinRate: 0.5, MeanNetPL: 0.2,
			PValue: 0.4, PAdjusted: 0.6},
		{StrategyID: "band_90-95_move_30_hold_2", Trades: 1, Degenerate: true,
			WinRate: 1, MeanNetPL: 9.9, PValue: math.NaN()},
	})

	out := buf.String()
	assert.Contains(t, out, "band_1-5_move_20_hold_3")
	assert.Contains(t, out, "**")
	// Top-2 cutoff excludes the degenerate single-trade candidate.
	assert.NotContains(t, out, "band_90-95_move_30_hold_2")
	assert.Contains(t, out, "bonferroni:1")
}
