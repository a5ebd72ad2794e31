// Package stats turns trade samples into evaluation metrics and applies
// multiple-testing corrections across the whole candidate family. Degenerate
// samples (fewer than two trades, or zero variance) produce NaN statistics
// rather than errors: an empty cell in the grid is a result, not a failure.
package stats

import (
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Config tunes the validator. Zero values fall back to the study defaults.
type Config struct {
	Alpha               float64 // family-wise significance level
	AnnualizationFactor float64 // trades per year for Sharpe scaling
	BootstrapIters      int
	BootstrapSeed       int64
}

func (c Config) withDefaults() Config {
	if c.Alpha <= 0 {
		c.Alpha = 0.05
	}
	if c.AnnualizationFactor <= 0 {
		c.AnnualizationFactor = 240
	}
	if c.BootstrapIters <= 0 {
		c.BootstrapIters = 1000
	}
	if c.BootstrapSeed == 0 {
		c.BootstrapSeed = 20260314
	}
	return c
}

// Validator computes per-candidate metrics and family-wide corrections.
type Validator struct {
	cfg    Config
	logger *slog.Logger
}

// NewValidator creates a validator with defaults applied.
func NewValidator(cfg Config, logger *slog.Logger) *Validator {
	return &Validator{
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "stats")),
	}
}

// Summarize computes every per-candidate metric from its trade sample. The
// result is self-contained except for the correction fields, which Correct
// fills in once all candidates are known.
func (v *Validator) Summarize(strategyID string, records []domain.TradeRecord) domain.StrategyMetrics {
	m := domain.StrategyMetrics{
		StrategyID: strategyID,
		Trades:     len(records),
	}

	nan := math.NaN()
	if len(records) == 0 {
		m.WinRate, m.WinRateLow, m.WinRateHigh = nan, nan, nan
		m.MeanNetPL, m.MedianNetPL, m.StdNetPL = nan, nan, nan
		m.Sharpe, m.MaxDrawdown, m.ProfitFactor = nan, nan, nan
		m.TStat, m.PValue, m.CohensD = nan, nan, nan
		m.BootstrapLow, m.BootstrapHigh, m.PAdjusted = nan, nan, nan
		m.Degenerate = true
		return m
	}

	pl := make([]float64, len(records))
	for i, r := range records {
		pl[i] = r.NetPL
		m.TotalNetPL += r.NetPL
		m.TotalFees += r.Fees
		if r.IsWinner {
			m.Wins++
		}
	}

	n := float64(len(pl))
	m.WinRate = float64(m.Wins) / n
	m.WinRateLow, m.WinRateHigh = v.wilson(m.Wins, len(pl))

	m.MeanNetPL = stat.Mean(pl, nil)
	m.MedianNetPL = median(pl)
	m.MaxDrawdown = maxDrawdown(pl)
	m.ProfitFactor = profitFactor(pl)

	if len(pl) < 2 {
		m.StdNetPL, m.Sharpe = nan, nan
		m.TStat, m.PValue, m.CohensD = nan, nan, nan
		m.BootstrapLow, m.BootstrapHigh, m.PAdjusted = nan, nan, nan
		m.Degenerate = true
		return m
	}

	m.StdNetPL = stat.StdDev(pl, nil)
	m.BootstrapLow, m.BootstrapHigh = v.bootstrapCI(strategyID, pl)
	m.PAdjusted = nan

	if m.StdNetPL == 0 {
		// All trades identical: t is undefined.
		m.Sharpe, m.TStat, m.PValue, m.CohensD = nan, nan, nan, nan
		m.Degenerate = true
		return m
	}

	m.Sharpe = m.MeanNetPL / m.StdNetPL * math.Sqrt(v.cfg.AnnualizationFactor)
	m.CohensD = m.MeanNetPL / m.StdNetPL
	m.TStat = m.MeanNetPL / (m.StdNetPL / math.Sqrt(n))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	m.PValue = 2 * tDist.Survival(math.Abs(m.TStat))
	return m
}

// wilson returns the Wilson score interval for wins out of n at the
// configured alpha.
func (v *Validator) wilson(wins, n int) (float64, float64) {
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - v.cfg.Alpha/2)
	nf := float64(n)
	phat := float64(wins) / nf

	denom := 1 + z*z/nf
	center := (phat + z*z/(2*nf)) / denom
	half := z * math.Sqrt(phat*(1-phat)/nf+z*z/(4*nf*nf)) / denom

	lo := center - half
	hi := center + half
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	return lo, hi
}

// bootstrapCI resamples the P/L vector with replacement and returns the
// 2.5/97.5 percentile interval of the resampled means. The RNG is seeded
// from the configured seed and the strategy ID, so results do not depend on
// which worker ran the candidate or in what order.
func (v *Validator) bootstrapCI(strategyID string, pl []float64) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(strategyID))
	rng := rand.New(rand.NewSource(v.cfg.BootstrapSeed ^ int64(h.Sum64())))

	means := make([]float64, v.cfg.BootstrapIters)
	for i := range means {
		var sum float64
		for range pl {
			sum += pl[rng.Intn(len(pl))]
		}
		means[i] = sum / float64(len(pl))
	}
	sort.Float64s(means)
	return stat.Quantile(0.025, stat.Empirical, means, nil),
		stat.Quantile(0.975, stat.Empirical, means, nil)
}

func median(pl []float64) float64 {
	s := append([]float64(nil), pl...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// maxDrawdown is the largest peak-to-trough fall of the cumulative P/L
// curve, in dollars, reported as a non-negative number.
func maxDrawdown(pl []float64) float64 {
	var cum, peak, dd float64
	for _, x := range pl {
		cum += x
		if cum > peak {
			peak = cum
		}
		if d := peak - cum; d > dd {
			dd = d
		}
	}
	return dd
}

// profitFactor is gross gains over gross losses. No losses yields +Inf.
func profitFactor(pl []float64) float64 {
	var gains, losses float64
	for _, x := range pl {
		if x > 0 {
			gains += x
		} else {
			losses -= x
		}
	}
	if losses == 0 {
		return math.Inf(1)
	}
	return gains / losses
}
