// Package search enumerates the strategy parameter grid and evaluates every
// candidate over the full series set in a bounded worker pool.
package search

import (
	"fmt"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Grid is the cross product of entry bands, move thresholds, and holding
// periods. Every combination becomes one candidate; there is no pruning, so
// the statistical correction downstream sees the true number of tests.
type Grid struct {
	Bands             []domain.PriceBand
	MoveThresholdsPct []float64
	HoldMinutes       []int
	LookbackMinutes   int
}

// Validate rejects grids that would enumerate nothing or carry unusable
// parameters. Configuration problems surface here, before any work starts.
func (g Grid) Validate() error {
	if len(g.Bands) == 0 || len(g.MoveThresholdsPct) == 0 || len(g.HoldMinutes) == 0 {
		return fmt.Errorf("search: grid has an empty axis")
	}
	for _, b := range g.Bands {
		if b.Min < 0 || b.Max > 100 || b.Min > b.Max {
			return fmt.Errorf("search: invalid band %s", b)
		}
	}
	for _, th := range g.MoveThresholdsPct {
		if th < 0 {
			return fmt.Errorf("search: negative move threshold %g", th)
		}
	}
	for _, h := range g.HoldMinutes {
		if h <= 0 {
			return fmt.Errorf("search: non-positive hold %d", h)
		}
	}
	return nil
}

// Size returns the number of candidates the grid enumerates.
func (g Grid) Size() int {
	return len(g.Bands) * len(g.MoveThresholdsPct) * len(g.HoldMinutes)
}

// Enumerate expands the grid in a fixed order (bands, then thresholds, then
// holds), so candidate index i always names the same parameter tuple across
// runs.
func (g Grid) Enumerate() []domain.StrategyCandidate {
	out := make([]domain.StrategyCandidate, 0, g.Size())
	for _, band := range g.Bands {
		for _, th := range g.MoveThresholdsPct {
			for _, hold := range g.HoldMinutes {
				out = append(out, domain.StrategyCandidate{
					ID:               domain.CandidateID(band, th, hold),
					Band:             band,
					MoveThresholdPct: th,
					HoldMinutes:      hold,
					LookbackMinutes:  g.LookbackMinutes,
				})
			}
		}
	}
	return out
}

// DefaultGrid is the study's standard sweep: tail and near-certain entry
// bands, large-move thresholds, and short holds.
func DefaultGrid() Grid {
	return Grid{
		Bands: []domain.PriceBand{
			{Min: 1, Max: 5}, {Min: 1, Max: 10},
			{Min: 90, Max: 95}, {Min: 95, Max: 99},
		},
		MoveThresholdsPct: []float64{15, 20, 25, 30},
		HoldMinutes:       []int{2, 3, 5, 10, 15},
		LookbackMinutes:   1,
	}
}
