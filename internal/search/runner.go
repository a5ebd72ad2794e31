package search

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/fadebot/internal/backtest"
	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
	"github.com/alanyoungcy/fadebot/internal/strategy"
)

// Result pairs a candidate with the trades it produced over the series set.
// Zero-trade candidates keep their slot with an empty record list; the
// validator needs them to count the full family of tests.
type Result struct {
	Candidate domain.StrategyCandidate
	Records   []domain.TradeRecord
}

// Runner fans candidates out over a bounded worker pool. Candidates are
// immutable, the series set is read only, and each worker owns its engine
// and writes only its own result slot, so evaluation order cannot change
// the outcome.
type Runner struct {
	schedule  fees.Schedule
	contracts int
	workers   int
	logger    *slog.Logger
}

// NewRunner creates a runner with the given pool size; workers <= 0 falls
// back to a single worker.
func NewRunner(schedule fees.Schedule, contracts, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		schedule:  schedule,
		contracts: contracts,
		workers:   workers,
		logger:    logger.With(slog.String("component", "search")),
	}
}

// EvaluateAll runs every candidate over every series. Results come back
// indexed exactly like candidates. Sequencing errors inside an instrument
// are skipped per instrument by the engine; anything else aborts the search.
func (r *Runner) EvaluateAll(ctx context.Context, candidates []domain.StrategyCandidate, seriesSet []domain.Series) ([]Result, error) {
	results := make([]Result, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, cand := range candidates {
		g.Go(func() error {
			eng, err := backtest.New(r.schedule, r.contracts, r.logger)
			if err != nil {
				return fmt.Errorf("search: candidate %s: %w", cand.ID, err)
			}
			records, err := eng.RunAll(ctx, seriesSet, strategy.NewStaticRule(cand))
			if err != nil {
				return fmt.Errorf("search: candidate %s: %w", cand.ID, err)
			}
			results[i] = Result{Candidate: cand, Records: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Info("grid evaluated",
		slog.Int("candidates", len(candidates)),
		slog.Int("instruments", len(seriesSet)),
	)
	return results, nil
}
