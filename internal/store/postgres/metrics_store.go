package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// MetricsStore implements domain.MetricsStore using PostgreSQL. NaN metric
// values round-trip as-is; double precision columns store them natively.
type MetricsStore struct {
	pool *pgxpool.Pool
}

var _ domain.MetricsStore = (*MetricsStore)(nil)

// NewMetricsStore creates a new MetricsStore backed by the given pool.
func NewMetricsStore(pool *pgxpool.Pool) *MetricsStore {
	return &MetricsStore{pool: pool}
}

const metricsSelectCols = `run_id, strategy_id, trades, wins,
	win_rate, win_rate_low, win_rate_high,
	total_net_pl, total_fees, mean_net_pl, median_net_pl, std_net_pl,
	sharpe, max_drawdown, profit_factor, t_stat, p_value, cohens_d,
	bootstrap_low, bootstrap_high, p_adjusted,
	bonferroni_significant, fdr_significant, degenerate`

func scanMetricsRow(row pgx.Row) (domain.StrategyMetrics, error) {
	var m domain.StrategyMetrics
	err := row.Scan(
		&m.RunID, &m.StrategyID, &m.Trades, &m.Wins,
		&m.WinRate, &m.WinRateLow, &m.WinRateHigh,
		&m.TotalNetPL, &m.TotalFees, &m.MeanNetPL, &m.MedianNetPL, &m.StdNetPL,
		&m.Sharpe, &m.MaxDrawdown, &m.ProfitFactor, &m.TStat, &m.PValue, &m.CohensD,
		&m.BootstrapLow, &m.BootstrapHigh, &m.PAdjusted,
		&m.BonferroniSignificant, &m.FDRSignificant, &m.Degenerate,
	)
	return m, err
}

// UpsertBatch writes per-candidate metrics, replacing earlier values for the
// same (run, strategy) pair so a rerun overwrites cleanly.
func (s *MetricsStore) UpsertBatch(ctx context.Context, metrics []domain.StrategyMetrics) error {
	if len(metrics) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO strategy_metrics (
			run_id, strategy_id, trades, wins,
			win_rate, win_rate_low, win_rate_high,
			total_net_pl, total_fees, mean_net_pl, median_net_pl, std_net_pl,
			sharpe, max_drawdown, profit_factor, t_stat, p_value, cohens_d,
			bootstrap_low, bootstrap_high, p_adjusted,
			bonferroni_significant, fdr_significant, degenerate
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21,
			$22, $23, $24
		) ON CONFLICT (run_id, strategy_id) DO UPDATE SET
			trades = EXCLUDED.trades, wins = EXCLUDED.wins,
			win_rate = EXCLUDED.win_rate,
			win_rate_low = EXCLUDED.win_rate_low, win_rate_high = EXCLUDED.win_rate_high,
			total_net_pl = EXCLUDED.total_net_pl, total_fees = EXCLUDED.total_fees,
			mean_net_pl = EXCLUDED.mean_net_pl, median_net_pl = EXCLUDED.median_net_pl,
			std_net_pl = EXCLUDED.std_net_pl, sharpe = EXCLUDED.sharpe,
			max_drawdown = EXCLUDED.max_drawdown, profit_factor = EXCLUDED.profit_factor,
			t_stat = EXCLUDED.t_stat, p_value = EXCLUDED.p_value, cohens_d = EXCLUDED.cohens_d,
			bootstrap_low = EXCLUDED.bootstrap_low, bootstrap_high = EXCLUDED.bootstrap_high,
			p_adjusted = EXCLUDED.p_adjusted,
			bonferroni_significant = EXCLUDED.bonferroni_significant,
			fdr_significant = EXCLUDED.fdr_significant,
			degenerate = EXCLUDED.degenerate`

	for _, m := range metrics {
		batch.Queue(query,
			m.RunID, m.StrategyID, m.Trades, m.Wins,
			m.WinRate, m.WinRateLow, m.WinRateHigh,
			m.TotalNetPL, m.TotalFees, m.MeanNetPL, m.MedianNetPL, m.StdNetPL,
			m.Sharpe, m.MaxDrawdown, m.ProfitFactor, m.TStat, m.PValue, m.CohensD,
			m.BootstrapLow, m.BootstrapHigh, m.PAdjusted,
			m.BonferroniSignificant, m.FDRSignificant, m.Degenerate,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range metrics {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert metrics batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByRun returns every candidate's metrics for a run, ordered by
// strategy ID for stable reports.
func (s *MetricsStore) ListByRun(ctx context.Context, runID string) ([]domain.StrategyMetrics, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+metricsSelectCols+` FROM strategy_metrics WHERE run_id = $1 ORDER BY strategy_id`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list metrics by run: %w", err)
	}
	defer rows.Close()

	var out []domain.StrategyMetrics
	for rows.Next() {
		m, err := scanMetricsRow(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByStrategy returns one candidate's metrics for a run.
func (s *MetricsStore) GetByStrategy(ctx context.Context, runID, strategyID string) (domain.StrategyMetrics, error) {
	m, err := scanMetricsRow(s.pool.QueryRow(ctx,
		`SELECT `+metricsSelectCols+` FROM strategy_metrics WHERE run_id = $1 AND strategy_id = $2`,
		runID, strategyID))
	if err == pgx.ErrNoRows {
		return domain.StrategyMetrics{}, fmt.Errorf("postgres: metrics %s/%s: %w", runID, strategyID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.StrategyMetrics{}, fmt.Errorf("postgres: get metrics: %w", err)
	}
	return m, nil
}
