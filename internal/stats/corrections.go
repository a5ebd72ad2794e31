package stats

import (
	"log/slog"
	"math"
	"sort"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Correct applies Bonferroni and Benjamini-Hochberg over the full candidate
// family in place. It must be called exactly once with every candidate of
// the run; calling it per batch would understate the number of tests and
// manufacture significance. Degenerate candidates keep NaN adjusted p-values
// and never count toward the correction denominator.
func (v *Validator) Correct(metrics []domain.StrategyMetrics) {
	type tested struct {
		idx int
		p   float64
	}
	var valid []tested
	for i := range metrics {
		if !metrics[i].Degenerate && !math.IsNaN(metrics[i].PValue) {
			valid = append(valid, tested{idx: i, p: metrics[i].PValue})
			continue
		}
		// Excluded slots hold NaN regardless of how the metrics were built.
		metrics[i].PAdjusted = math.NaN()
		metrics[i].BonferroniSignificant = false
		metrics[i].FDRSignificant = false
	}
	if len(valid) == 0 {
		return
	}

	n := float64(len(valid))
	bonferroniCut := v.cfg.Alpha / n

	sort.Slice(valid, func(a, b int) bool { return valid[a].p < valid[b].p })

	// Step-up: the largest rank k with p_(k) <= k/N * alpha admits every
	// smaller rank as well.
	cutoff := -1
	for k := len(valid) - 1; k >= 0; k-- {
		if valid[k].p <= float64(k+1)/n*v.cfg.Alpha {
			cutoff = k
			break
		}
	}

	// Adjusted p-values, monotone from the largest rank down.
	adj := make([]float64, len(valid))
	running := 1.0
	for k := len(valid) - 1; k >= 0; k-- {
		p := valid[k].p * n / float64(k+1)
		if p < running {
			running = p
		}
		adj[k] = running
	}

	for k, t := range valid {
		m := &metrics[t.idx]
		m.BonferroniSignificant = t.p < bonferroniCut
		m.FDRSignificant = k <= cutoff
		m.PAdjusted = adj[k]
	}

	v.logger.Info("multiple-testing correction applied",
		slog.Int("tested", len(valid)),
		slog.Int("excluded_degenerate", len(metrics)-len(valid)),
		slog.Float64("bonferroni_cutoff", bonferroniCut),
	)
}

// SummarizeAll computes metrics for every result slot and applies the
// family-wide correction in one pass.
func (v *Validator) SummarizeAll(results map[string][]domain.TradeRecord, order []string) []domain.StrategyMetrics {
	metrics := make([]domain.StrategyMetrics, len(order))
	for i, id := range order {
		metrics[i] = v.Summarize(id, results[id])
	}
	v.Correct(metrics)
	return metrics
}
