package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// CandleStore implements domain.CandleStore using PostgreSQL.
type CandleStore struct {
	pool *pgxpool.Pool
}

var _ domain.CandleStore = (*CandleStore)(nil)

// NewCandleStore creates a new CandleStore backed by the given connection pool.
func NewCandleStore(pool *pgxpool.Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// UpsertBatch inserts candles efficiently using pgx Batch. Re-imported
// minutes overwrite their previous values, so a refreshed export wins.
func (s *CandleStore) UpsertBatch(ctx context.Context, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO candles (instrument_id, ts, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (instrument_id, ts) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high,
			low = EXCLUDED.low, close = EXCLUDED.close,
			volume = EXCLUDED.volume`

	for _, c := range candles {
		batch.Queue(query, c.InstrumentID, c.TS, c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range candles {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert candle batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetSeries loads the full ordered series for one instrument, together with
// its settlement value when recorded.
func (s *CandleStore) GetSeries(ctx context.Context, instrumentID string) (domain.Series, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT instrument_id, ts, open, high, low, close, volume
		FROM candles WHERE instrument_id = $1 ORDER BY ts ASC`, instrumentID)
	if err != nil {
		return domain.Series{}, fmt.Errorf("postgres: get series %s: %w", instrumentID, err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.InstrumentID, &c.TS, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return domain.Series{}, fmt.Errorf("postgres: scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Series{}, fmt.Errorf("postgres: read series %s: %w", instrumentID, err)
	}
	if len(candles) == 0 {
		return domain.Series{}, fmt.Errorf("postgres: series %s: %w", instrumentID, domain.ErrNotFound)
	}

	out := domain.Series{InstrumentID: instrumentID, Candles: candles}

	var value float64
	err = s.pool.QueryRow(ctx,
		"SELECT value FROM settlements WHERE instrument_id = $1", instrumentID).Scan(&value)
	switch {
	case err == nil:
		out.Settlement = &value
	case err == pgx.ErrNoRows:
	default:
		return domain.Series{}, fmt.Errorf("postgres: get settlement %s: %w", instrumentID, err)
	}
	return out, nil
}

// ListInstruments returns every instrument with at least one candle.
func (s *CandleStore) ListInstruments(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT instrument_id FROM candles ORDER BY instrument_id")
	if err != nil {
		return nil, fmt.Errorf("postgres: list instruments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan instrument: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetSettlement records the resolution value for an instrument.
func (s *CandleStore) SetSettlement(ctx context.Context, instrumentID string, value float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlements (instrument_id, value) VALUES ($1, $2)
		ON CONFLICT (instrument_id) DO UPDATE SET value = EXCLUDED.value, recorded_at = NOW()`,
		instrumentID, value)
	if err != nil {
		return fmt.Errorf("postgres: set settlement %s: %w", instrumentID, err)
	}
	return nil
}

// Count returns the total number of stored candles.
func (s *CandleStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM candles").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count candles: %w", err)
	}
	return n, nil
}
