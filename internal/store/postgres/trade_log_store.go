package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// TradeLogStore implements domain.TradeLogStore using PostgreSQL.
type TradeLogStore struct {
	pool *pgxpool.Pool
}

var _ domain.TradeLogStore = (*TradeLogStore)(nil)

// NewTradeLogStore creates a new TradeLogStore backed by the given pool.
func NewTradeLogStore(pool *pgxpool.Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

const tradeLogSelectCols = `id, run_id, instrument_id, strategy_id,
	entry_time, exit_time, entry_price, exit_price, size,
	gross_pl, fees, net_pl, is_winner, is_expiration`

func scanTradeLogRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var records []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		if err := rows.Scan(
			&r.ID, &r.RunID, &r.InstrumentID, &r.StrategyID,
			&r.EntryTime, &r.ExitTime, &r.EntryPrice, &r.ExitPrice, &r.Size,
			&r.GrossPL, &r.Fees, &r.NetPL, &r.IsWinner, &r.IsExpiration,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// InsertBatch inserts records efficiently using pgx Batch. Replayed records
// (same ID) are silently skipped via ON CONFLICT DO NOTHING.
func (s *TradeLogStore) InsertBatch(ctx context.Context, records []domain.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO trade_log (
			id, run_id, instrument_id, strategy_id,
			entry_time, exit_time, entry_price, exit_price, size,
			gross_pl, fees, net_pl, is_winner, is_expiration
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14
		) ON CONFLICT (id) DO NOTHING`

	for _, r := range records {
		batch.Queue(query,
			r.ID, r.RunID, r.InstrumentID, r.StrategyID,
			r.EntryTime, r.ExitTime, r.EntryPrice, r.ExitPrice, r.Size,
			r.GrossPL, r.Fees, r.NetPL, r.IsWinner, r.IsExpiration,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert trade log batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByStrategy returns records for one candidate with pagination and
// optional time filtering.
func (s *TradeLogStore) ListByStrategy(ctx context.Context, strategyID string, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeLogSelectCols + ` FROM trade_log WHERE strategy_id = $1`
	args := []any{strategyID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND entry_time >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND entry_time <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY entry_time ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade log by strategy: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeLogRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade log by strategy: %w", err)
	}
	return records, nil
}

// ListByRun returns records for one run with pagination.
func (s *TradeLogStore) ListByRun(ctx context.Context, runID string, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeLogSelectCols + ` FROM trade_log WHERE run_id = $1 ORDER BY entry_time ASC`
	args := []any{runID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade log by run: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeLogRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade log by run: %w", err)
	}
	return records, nil
}
