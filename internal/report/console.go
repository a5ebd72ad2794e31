package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Console renders ranked candidate tables to a writer (normally stdout).
type Console struct {
	out  io.Writer
	topN int
}

// NewConsole creates a console reporter showing the top topN candidates.
func NewConsole(out io.Writer, topN int) *Console {
	if topN <= 0 {
		topN = 10
	}
	return &Console{out: out, topN: topN}
}

// PrintMetrics prints the validation summary and the top candidates ranked
// by mean net P/L per trade. Degenerate candidates sort last regardless of
// their point estimates.
func (c *Console) PrintMetrics(runID string, metrics []domain.StrategyMetrics) {
	ranked := Rank(metrics)

	raw, bonf, fdr := significanceCounts(metrics)
	fmt.Fprintf(c.out, "\n[%s] run %s — %d candidates, raw p<α:%d bonferroni:%d fdr:%d\n",
		time.Now().Format("15:04:05"), runID, len(metrics), raw, bonf, fdr)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strategy", "Trades", "Win%", "Wilson 95%", "Mean P/L", "Total P/L", "Sharpe", "p", "p adj", "Sig")

	shown := len(ranked)
	if shown > c.topN {
		shown = c.topN
	}
	for i, m := range ranked[:shown] {
		table.Append(
			fmt.Sprintf("%d", i+1),
			m.StrategyID,
			fmt.Sprintf("%d", m.Trades),
			percentLabel(m.WinRate),
			fmt.Sprintf("[%s, %s]", percentLabel(m.WinRateLow), percentLabel(m.WinRateHigh)),
			dollarLabel(m.MeanNetPL),
			dollarLabel(m.TotalNetPL),
			floatLabel(m.Sharpe),
			floatLabel(m.PValue),
			floatLabel(m.PAdjusted),
			sigLabel(m),
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Sig: ** = survives Bonferroni | * = survives FDR (BH) | - = not significant")
}

// Rank orders metrics for presentation: non-degenerate first, then by mean
// net P/L descending, strategy ID as the tiebreak.
func Rank(metrics []domain.StrategyMetrics) []domain.StrategyMetrics {
	ranked := make([]domain.StrategyMetrics, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Degenerate != b.Degenerate {
			return !a.Degenerate
		}
		am, bm := a.MeanNetPL, b.MeanNetPL
		if math.IsNaN(am) {
			am = math.Inf(-1)
		}
		if math.IsNaN(bm) {
			bm = math.Inf(-1)
		}
		if am != bm {
			return am > bm
		}
		return a.StrategyID < b.StrategyID
	})
	return ranked
}

func significanceCounts(metrics []domain.StrategyMetrics) (raw, bonf, fdr int) {
	for _, m := range metrics {
		if m.Degenerate {
			continue
		}
		if m.PValue < 0.05 {
			raw++
		}
		if m.BonferroniSignificant {
			bonf++
		}
		if m.FDRSignificant {
			fdr++
		}
	}
	return raw, bonf, fdr
}

func sigLabel(m domain.StrategyMetrics) string {
	switch {
	case m.BonferroniSignificant:
		return "**"
	case m.FDRSignificant:
		return "*"
	default:
		return "-"
	}
}

func percentLabel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v*100)
}

func dollarLabel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("$%.2f", v)
}

func floatLabel(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
