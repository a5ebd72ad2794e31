package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

var _ domain.RunStore = (*RunStore)(nil)

// NewRunStore creates a new RunStore backed by the given pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Create records a new session.
func (s *RunStore) Create(ctx context.Context, run domain.Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (id, mode, started_at, finished_at, status, candidates, contracts, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Mode, run.StartedAt, run.FinishedAt, run.Status,
		run.Candidates, run.Contracts, run.Notes)
	if err != nil {
		return fmt.Errorf("postgres: create run %s: %w", run.ID, err)
	}
	return nil
}

// Finish marks a session finished or failed.
func (s *RunStore) Finish(ctx context.Context, id string, status domain.RunStatus, notes string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE runs SET finished_at = $2, status = $3, notes = $4 WHERE id = $1`,
		id, time.Now().UTC(), status, notes)
	if err != nil {
		return fmt.Errorf("postgres: finish run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: finish run %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetByID returns one session.
func (s *RunStore) GetByID(ctx context.Context, id string) (domain.Run, error) {
	var r domain.Run
	err := s.pool.QueryRow(ctx, `
		SELECT id, mode, started_at, finished_at, status, candidates, contracts, notes
		FROM runs WHERE id = $1`, id).Scan(
		&r.ID, &r.Mode, &r.StartedAt, &r.FinishedAt, &r.Status,
		&r.Candidates, &r.Contracts, &r.Notes)
	if err == pgx.ErrNoRows {
		return domain.Run{}, fmt.Errorf("postgres: run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	return r, nil
}

// ListRecent returns the latest sessions, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, mode, started_at, finished_at, status, candidates, contracts, notes
		FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.Run
	for rows.Next() {
		var r domain.Run
		if err := rows.Scan(
			&r.ID, &r.Mode, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.Candidates, &r.Contracts, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
