// Package report renders run results: CSV files for downstream analysis and
// console tables for a quick read of which candidates survived validation.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// tradeLogHeader and metricsHeader define the CSV column order. The archiver
// uploads the same layout, so local and archived artifacts stay comparable.
var tradeLogHeader = []string{
	"id", "instrument_id", "strategy_id",
	"entry_time", "exit_time", "entry_price", "exit_price", "size",
	"gross_pl", "fees", "net_pl", "is_winner", "is_expiration",
}

var metricsHeader = []string{
	"strategy_id", "trades", "wins",
	"win_rate", "win_rate_low", "win_rate_high",
	"total_net_pl", "total_fees", "mean_net_pl", "median_net_pl", "std_net_pl",
	"sharpe", "max_drawdown", "profit_factor",
	"t_stat", "p_value", "cohens_d",
	"bootstrap_low", "bootstrap_high", "p_adjusted",
	"bonferroni_significant", "fdr_significant", "degenerate",
}

// WriteTradeLogCSV writes the trade log for a run into dir and returns the
// file path written.
func WriteTradeLogCSV(dir, runID string, records []domain.TradeRecord) (string, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID, r.InstrumentID, r.StrategyID,
			r.EntryTime.UTC().Format(time.RFC3339),
			r.ExitTime.UTC().Format(time.RFC3339),
			formatFloat(r.EntryPrice), formatFloat(r.ExitPrice),
			strconv.Itoa(r.Size),
			formatFloat(r.GrossPL), formatFloat(r.Fees), formatFloat(r.NetPL),
			strconv.FormatBool(r.IsWinner), strconv.FormatBool(r.IsExpiration),
		})
	}
	return writeCSV(dir, runID+"_trade_log.csv", tradeLogHeader, rows)
}

// WriteMetricsCSV writes the per-candidate metrics table for a run into dir
// and returns the file path written.
func WriteMetricsCSV(dir, runID string, metrics []domain.StrategyMetrics) (string, error) {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, metricsRow(m))
	}
	return writeCSV(dir, runID+"_metrics.csv", metricsHeader, rows)
}

func metricsRow(m domain.StrategyMetrics) []string {
	return []string{
		m.StrategyID, strconv.Itoa(m.Trades), strconv.Itoa(m.Wins),
		formatFloat(m.WinRate), formatFloat(m.WinRateLow), formatFloat(m.WinRateHigh),
		formatFloat(m.TotalNetPL), formatFloat(m.TotalFees),
		formatFloat(m.MeanNetPL), formatFloat(m.MedianNetPL), formatFloat(m.StdNetPL),
		formatFloat(m.Sharpe), formatFloat(m.MaxDrawdown), formatFloat(m.ProfitFactor),
		formatFloat(m.TStat), formatFloat(m.PValue), formatFloat(m.CohensD),
		formatFloat(m.BootstrapLow), formatFloat(m.BootstrapHigh), formatFloat(m.PAdjusted),
		strconv.FormatBool(m.BonferroniSignificant), strconv.FormatBool(m.FDRSignificant),
		strconv.FormatBool(m.Degenerate),
	}
}

func writeCSV(dir, name string, header []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("report: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("report: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: flush %s: %w", path, err)
	}
	return path, nil
}

// formatFloat renders metric values compactly. NaN and Inf print as their
// Go names, which downstream tooling treats as missing.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
