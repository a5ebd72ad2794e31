package s3blob

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

type capturingWriter struct {
	path        string
	contentType string
	body        string
}

func (w *capturingWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.path = path
	w.contentType = contentType
	w.body = string(b)
	return nil
}

func (w *capturingWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "")
}

func TestArchiveTradeLog(t *testing.T) {
	w := &capturingWriter{}
	a := NewArchiver(w)

	entry := time.Date(2026, 3, 14, 15, 2, 0, 0, time.UTC)
	records := []domain.TradeRecord{{
		ID:           "t-1",
		RunID:        "run-1",
		InstrumentID: "INXD-26MAR14",
		StrategyID:   "band_1-99_move_5_hold_3",
		EntryTime:    entry,
		ExitTime:     entry.Add(3 * time.Minute),
		EntryPrice:   54,
		ExitPrice:    54,
		Size:         100,
		GrossPL:      0,
		Fees:         3.4776,
		NetPL:        -3.4776,
		IsWinner:     false,
		IsExpiration: false,
	}}

	path, err := a.ArchiveTradeLog(context.Background(), "run-1", records)
	require.NoError(t, err)
	assert.Equal(t, "runs/run-1/trade_log.csv", path)
	assert.Equal(t, path, w.path)
	assert.Equal(t, "text/csv", w.contentType)

	rows, err := csv.NewReader(strings.NewReader(w.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "t-1", rows[1][0])
	assert.Equal(t, "2026-03-14T15:02:00Z", rows[1][3])
	assert.Equal(t, "-3.4776", rows[1][10])
	assert.Equal(t, "false", rows[1][11])
}

func TestArchiveMetrics(t *testing.T) {
	w := &capturingWriter{}
	a := NewArchiver(w)

	metrics := []domain.StrategyMetrics{{
		RunID:      "run-1",
		StrategyID: "band_1-99_move_5_hold_3",
		Trades:     12,
		Wins:       7,
		WinRate:    7.0 / 12.0,
	}}

	path, err := a.ArchiveMetrics(context.Background(), "run-1", metrics)
	require.NoError(t, err)
	assert.Equal(t, "runs/run-1/metrics.csv", path)

	rows, err := csv.NewReader(strings.NewReader(w.body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "strategy_id", rows[0][0])
	assert.Equal(t, "band_1-99_move_5_hold_3", rows[1][0])
	assert.Equal(t, "12", rows[1][1])
}
