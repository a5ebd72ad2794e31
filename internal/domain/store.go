package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// CandleStore persists minute candles and serves ordered series.
type CandleStore interface {
	UpsertBatch(ctx context.Context, candles []Candle) error
	GetSeries(ctx context.Context, instrumentID string) (Series, error)
	ListInstruments(ctx context.Context) ([]string, error)
	SetSettlement(ctx context.Context, instrumentID string, value float64) error
	Count(ctx context.Context) (int64, error)
}

// TradeLogStore persists completed round trips.
type TradeLogStore interface {
	InsertBatch(ctx context.Context, records []TradeRecord) error
	ListByStrategy(ctx context.Context, strategyID string, opts ListOpts) ([]TradeRecord, error)
	ListByRun(ctx context.Context, runID string, opts ListOpts) ([]TradeRecord, error)
}

// MetricsStore persists per-candidate evaluation results.
type MetricsStore interface {
	UpsertBatch(ctx context.Context, metrics []StrategyMetrics) error
	ListByRun(ctx context.Context, runID string) ([]StrategyMetrics, error)
	GetByStrategy(ctx context.Context, runID, strategyID string) (StrategyMetrics, error)
}

// RunStore persists backtest, search, and paper sessions.
type RunStore interface {
	Create(ctx context.Context, run Run) error
	Finish(ctx context.Context, id string, status RunStatus, notes string) error
	GetByID(ctx context.Context, id string) (Run, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
