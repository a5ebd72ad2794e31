package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// SeriesCache implements domain.SeriesCache using JSON blobs at key
// "series:{instrumentID}". Cached series are already validated and
// gap-filled, so a hit skips the whole load-and-clean path.
type SeriesCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSeriesCache creates a SeriesCache with the given entry TTL.
// A non-positive TTL means entries never expire.
func NewSeriesCache(c *Client, ttl time.Duration) *SeriesCache {
	return &SeriesCache{rdb: c.Underlying(), ttl: ttl}
}

func seriesKey(instrumentID string) string {
	return "series:" + instrumentID
}

// SetSeries stores the series under its instrument ID.
func (sc *SeriesCache) SetSeries(ctx context.Context, s domain.Series) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal series %s: %w", s.InstrumentID, err)
	}
	if err := sc.rdb.Set(ctx, seriesKey(s.InstrumentID), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set series %s: %w", s.InstrumentID, err)
	}
	return nil
}

// GetSeries retrieves a cached series. It returns domain.ErrNotFound when
// the instrument is not cached.
func (sc *SeriesCache) GetSeries(ctx context.Context, instrumentID string) (domain.Series, error) {
	data, err := sc.rdb.Get(ctx, seriesKey(instrumentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Series{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Series{}, fmt.Errorf("redis: get series %s: %w", instrumentID, err)
	}

	var s domain.Series
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Series{}, fmt.Errorf("redis: unmarshal series %s: %w", instrumentID, err)
	}
	return s, nil
}

// Invalidate removes a cached series. Removing a missing key is not an error.
func (sc *SeriesCache) Invalidate(ctx context.Context, instrumentID string) error {
	if err := sc.rdb.Del(ctx, seriesKey(instrumentID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate series %s: %w", instrumentID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SeriesCache = (*SeriesCache)(nil)
