package stats

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	return NewValidator(Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recordsFromPL(pl ...float64) []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(pl))
	for i, x := range pl {
		out[i] = domain.TradeRecord{NetPL: x, IsWinner: x > 0}
	}
	return out
}

func TestSummarizeBasicSample(t *testing.T) {
	v := newTestValidator(t)

	m := v.Summarize("cand", recordsFromPL(1, 2, 3, 4, 5))

	assert.Equal(t, 5, m.Trades)
	assert.Equal(t, 5, m.Wins)
	assert.InDelta(t, 1.0, m.WinRate, 1e-12)
	assert.InDelta(t, 3.0, m.MeanNetPL, 1e-12)
	assert.InDelta(t, 3.0, m.MedianNetPL, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), m.StdNetPL, 1e-12)
	assert.InDelta(t, 15.0, m.TotalNetPL, 1e-12)
	assert.False(t, m.Degenerate)

	// t = 3 / (sqrt(2.5)/sqrt(5)) with df=4; two-sided p sits between
	// 0.01 and 0.02 for this t.
	assert.InDelta(t, 4.2426, m.TStat, 1e-3)
	assert.Greater(t, m.PValue, 0.01)
	assert.Less(t, m.PValue, 0.02)

	assert.InDelta(t, m.MeanNetPL/m.StdNetPL, m.CohensD, 1e-12)
	assert.InDelta(t, m.CohensD*math.Sqrt(240), m.Sharpe, 1e-9)
}

func TestSummarizeWilsonInterval(t *testing.T) {
	v := newTestValidator(t)

	pl := make([]float64, 100)
	for i := range pl {
		if i < 50 {
			pl[i] = 1
		} else {
			pl[i] = -1
		}
	}
	m := v.Summarize("cand", recordsFromPL(pl...))

	assert.InDelta(t, 0.5, m.WinRate, 1e-12)
	assert.InDelta(t, 0.4038, m.WinRateLow, 1e-3)
	assert.InDelta(t, 0.5962, m.WinRateHigh, 1e-3)
	assert.Less(t, m.WinRateLow, m.WinRate)
	assert.Greater(t, m.WinRateHigh, m.WinRate)
}

func TestSummarizeDegenerateSamples(t *testing.T) {
	v := newTestValidator(t)

	empty := v.Summarize("none", nil)
	assert.Equal(t, 0, empty.Trades)
	assert.True(t, empty.Degenerate)
	assert.True(t, math.IsNaN(empty.PValue))
	assert.True(t, math.IsNaN(empty.WinRate))
	assert.True(t, math.IsNaN(empty.Sharpe))

	single := v.Summarize("one", recordsFromPL(2.5))
	assert.Equal(t, 1, single.Trades)
	assert.True(t, single.Degenerate)
	assert.True(t, math.IsNaN(single.PValue))
	assert.InDelta(t, 2.5, single.MeanNetPL, 1e-12)
	assert.InDelta(t, 2.5, single.MedianNetPL, 1e-12)

	flat := v.Summarize("flat", recordsFromPL(1, 1, 1, 1))
	assert.True(t, flat.Degenerate)
	assert.True(t, math.IsNaN(flat.PValue))
	assert.True(t, math.IsNaN(flat.Sharpe))
	assert.InDelta(t, 1.0, flat.MeanNetPL, 1e-12)
}

func TestSummarizeMaxDrawdownAndProfitFactor(t *testing.T) {
	v := newTestValidator(t)

	// Cumulative curve 5, 2, -2, 8: deepest fall is 5 -> -2.
	m := v.Summarize("dd", recordsFromPL(5, -3, -4, 10))
	assert.InDelta(t, 7.0, m.MaxDrawdown, 1e-12)
	assert.InDelta(t, 15.0/7.0, m.ProfitFactor, 1e-12)

	allWins := v.Summarize("wins", recordsFromPL(1, 2))
	assert.True(t, math.IsInf(allWins.ProfitFactor, 1))
	assert.InDelta(t, 0, allWins.MaxDrawdown, 1e-12)
}

func TestBootstrapDeterministicPerStrategy(t *testing.T) {
	v := newTestValidator(t)
	records := recordsFromPL(1.2, -0.5, 3.1, -2.2, 0.7, 1.9, -1.1, 0.4)

	a := v.Summarize("cand", records)
	b := v.Summarize("cand", records)
	assert.Equal(t, a.BootstrapLow, b.BootstrapLow)
	assert.Equal(t, a.BootstrapHigh, b.BootstrapHigh)

	assert.Less(t, a.BootstrapLow, a.MeanNetPL)
	assert.Greater(t, a.BootstrapHigh, a.MeanNetPL)

	// A different strategy draws a different resample stream.
	c := v.Summarize("other", records)
	assert.NotEqual(t, a.BootstrapLow, c.BootstrapLow)
}

func testedMetrics(ps ...float64) []domain.StrategyMetrics {
	out := make([]domain.StrategyMetrics, len(ps))
	for i, p := range ps {
		out[i] = domain.StrategyMetrics{StrategyID: "cand", PValue: p}
		if math.IsNaN(p) {
			out[i].Degenerate = true
		}
	}
	return out
}

func TestCorrectKnownFamily(t *testing.T) {
	v := newTestValidator(t)

	metrics := testedMetrics(0.001, 0.008, 0.02, 0.04, 0.2, 0.6)
	v.Correct(metrics)

	// alpha/N = 0.05/6 = 0.00833.
	assert.True(t, metrics[0].BonferroniSignificant)
	assert.True(t, metrics[1].BonferroniSignificant)
	assert.False(t, metrics[2].BonferroniSignificant)

	// BH step-up admits the first three ranks.
	assert.True(t, metrics[0].FDRSignificant)
	assert.True(t, metrics[1].FDRSignificant)
	assert.True(t, metrics[2].FDRSignificant)
	assert.False(t, metrics[3].FDRSignificant)
	assert.False(t, metrics[4].FDRSignificant)

	// Adjusted p-values are monotone in the raw ordering.
	for i := 1; i < len(metrics); i++ {
		assert.GreaterOrEqual(t, metrics[i].PAdjusted, metrics[i-1].PAdjusted)
	}
}

func TestCorrectMonotonicity(t *testing.T) {
	v := newTestValidator(t)

	metrics := testedMetrics(0.0001, 0.004, 0.011, 0.023, 0.031, 0.048, 0.07, 0.3, 0.9)
	v.Correct(metrics)

	var bonf, fdr, raw int
	for _, m := range metrics {
		if m.BonferroniSignificant {
			bonf++
		}
		if m.FDRSignificant {
			fdr++
		}
		if m.PValue < 0.05 {
			raw++
		}
	}
	assert.LessOrEqual(t, bonf, fdr)
	assert.LessOrEqual(t, fdr, raw)
}

func TestCorrectExcludesDegenerate(t *testing.T) {
	v := newTestValidator(t)

	// Two valid tests plus two degenerate slots: N must be 2, so the
	// Bonferroni cutoff is 0.025, admitting p=0.02.
	metrics := testedMetrics(0.02, 0.9, math.NaN(), math.NaN())
	v.Correct(metrics)

	assert.True(t, metrics[0].BonferroniSignificant)
	assert.True(t, metrics[0].FDRSignificant)
	assert.True(t, math.IsNaN(metrics[2].PAdjusted))
	assert.False(t, metrics[2].FDRSignificant)
	assert.False(t, metrics[3].BonferroniSignificant)
}

func TestCorrectAllDegenerate(t *testing.T) {
	v := newTestValidator(t)
	metrics := testedMetrics(math.NaN(), math.NaN())
	v.Correct(metrics) // must not panic or divide by zero
	assert.False(t, metrics[0].FDRSignificant)
}

func TestSummarizeAll(t *testing.T) {
	v := newTestValidator(t)

	results := map[string][]domain.TradeRecord{
		"a": recordsFromPL(1, 2, 3, 2, 1, 3, 2, 1),
		"b": nil,
		"c": recordsFromPL(-1, 1, -2, 2),
	}
	metrics := v.SummarizeAll(results, []string{"a", "b", "c"})

	require.Len(t, metrics, 3)
	assert.Equal(t, "a", metrics[0].StrategyID)
	assert.Equal(t, 0, metrics[1].Trades)
	assert.True(t, metrics[1].Degenerate)
	assert.False(t, math.IsNaN(metrics[2].PValue))
}
