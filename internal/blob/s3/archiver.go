package s3blob

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Archiver implements domain.ResultArchiver by rendering run artifacts as
// CSV and uploading them under runs/{runID}/. The CSV layout matches the
// local report files, so an archived run reads back the same way.
type Archiver struct {
	writer domain.BlobWriter
}

// NewArchiver creates an Archiver that uploads through the given writer.
func NewArchiver(writer domain.BlobWriter) *Archiver {
	return &Archiver{writer: writer}
}

var _ domain.ResultArchiver = (*Archiver)(nil)

// ArchiveTradeLog uploads the full trade log for a run and returns the
// object path written.
func (a *Archiver) ArchiveTradeLog(ctx context.Context, runID string, records []domain.TradeRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "instrument_id", "strategy_id",
		"entry_time", "exit_time", "entry_price", "exit_price", "size",
		"gross_pl", "fees", "net_pl", "is_winner", "is_expiration",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("s3blob: write trade log header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID, r.InstrumentID, r.StrategyID,
			r.EntryTime.UTC().Format(time.RFC3339),
			r.ExitTime.UTC().Format(time.RFC3339),
			formatFloat(r.EntryPrice), formatFloat(r.ExitPrice),
			strconv.Itoa(r.Size),
			formatFloat(r.GrossPL), formatFloat(r.Fees), formatFloat(r.NetPL),
			strconv.FormatBool(r.IsWinner), strconv.FormatBool(r.IsExpiration),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("s3blob: write trade log row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("s3blob: flush trade log: %w", err)
	}

	path := archivePath(runID, "trade_log.csv")
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf.Bytes()), "text/csv"); err != nil {
		return "", fmt.Errorf("s3blob: archive trade log %s: %w", runID, err)
	}
	return path, nil
}

// ArchiveMetrics uploads the per-candidate metrics table for a run and
// returns the object path written.
func (a *Archiver) ArchiveMetrics(ctx context.Context, runID string, metrics []domain.StrategyMetrics) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"strategy_id", "trades", "wins",
		"win_rate", "win_rate_low", "win_rate_high",
		"total_net_pl", "total_fees", "mean_net_pl", "median_net_pl", "std_net_pl",
		"sharpe", "max_drawdown", "profit_factor",
		"t_stat", "p_value", "cohens_d",
		"bootstrap_low", "bootstrap_high", "p_adjusted",
		"bonferroni_significant", "fdr_significant", "degenerate",
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("s3blob: write metrics header: %w", err)
	}
	for _, m := range metrics {
		row := []string{
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
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("s3blob: write metrics row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("s3blob: flush metrics: %w", err)
	}

	path := archivePath(runID, "metrics.csv")
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf.Bytes()), "text/csv"); err != nil {
		return "", fmt.Errorf("s3blob: archive metrics %s: %w", runID, err)
	}
	return path, nil
}

// archivePath builds the S3 key for a run artifact.
//
//	runs/7f1c.../trade_log.csv
//	runs/7f1c.../metrics.csv
func archivePath(runID, name string) string {
	return fmt.Sprintf("runs/%s/%s", runID, name)
}

// formatFloat renders metric values compactly. NaN and Inf print as their
// Go names, which the reporting tools treat as missing.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
