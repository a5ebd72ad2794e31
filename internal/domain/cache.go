package domain

import (
	"context"
	"time"
)

// PriceCache provides fast access to the latest prices.
type PriceCache interface {
	SetPrice(ctx context.Context, instrumentID string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, instrumentID string) (float64, time.Time, error)
	GetPrices(ctx context.Context, instrumentIDs []string) (map[string]float64, error)
}

// SeriesCache stores validated, gap-filled series between runs so repeated
// grid searches do not reload and re-clean the same instruments.
type SeriesCache interface {
	SetSeries(ctx context.Context, s Series) error
	GetSeries(ctx context.Context, instrumentID string) (Series, error)
	Invalidate(ctx context.Context, instrumentID string) error
}
