package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/fadebot/internal/backtest"
	"github.com/alanyoungcy/fadebot/internal/crypto"
	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/fees"
	"github.com/alanyoungcy/fadebot/internal/ledger"
	"github.com/alanyoungcy/fadebot/internal/oracle"
	"github.com/alanyoungcy/fadebot/internal/paper"
	"github.com/alanyoungcy/fadebot/internal/platform/kalshi"
	"github.com/alanyoungcy/fadebot/internal/report"
	"github.com/alanyoungcy/fadebot/internal/search"
	"github.com/alanyoungcy/fadebot/internal/source"
	"github.com/alanyoungcy/fadebot/internal/stats"
	"github.com/alanyoungcy/fadebot/internal/strategy"
)

// BacktestMode evaluates the single configured candidate over the full
// series set, persists its trades and metrics, and reports the result.
func (a *App) BacktestMode(ctx context.Context, deps *Dependencies) error {
	sched, err := a.schedule()
	if err != nil {
		return err
	}
	pol, err := a.buildPolicy()
	if err != nil {
		return err
	}
	seriesSet, err := a.loadSeries(ctx, deps)
	if err != nil {
		return err
	}

	eng, err := backtest.New(sched, a.cfg.Backtest.Contracts, a.logger)
	if err != nil {
		return err
	}

	run, err := a.startRun(ctx, deps, "backtest", 1)
	if err != nil {
		return err
	}

	records, err := eng.RunAll(ctx, seriesSet, pol)
	if err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}

	validator := stats.NewValidator(a.statsConfig(), a.logger)
	metrics := validator.SummarizeAll(
		map[string][]domain.TradeRecord{pol.Name(): records},
		[]string{pol.Name()},
	)

	if err := a.persistResults(ctx, deps, run.ID, records, metrics); err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}
	if err := a.report(ctx, deps, run.ID, records, metrics); err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}
	return deps.RunStore.Finish(ctx, run.ID, domain.RunStatusFinished, "")
}

// SearchMode enumerates the configured grid, evaluates every candidate in
// the worker pool, validates the full family with multiplicity corrections,
// and reports the ranked results.
func (a *App) SearchMode(ctx context.Context, deps *Dependencies) error {
	sched, err := a.schedule()
	if err != nil {
		return err
	}
	grid := a.grid()
	if err := grid.Validate(); err != nil {
		return err
	}
	seriesSet, err := a.loadSeries(ctx, deps)
	if err != nil {
		return err
	}

	candidates := grid.Enumerate()
	a.logger.Info("grid enumerated",
		slog.Int("candidates", len(candidates)),
		slog.Int("series", len(seriesSet)),
	)

	run, err := a.startRun(ctx, deps, "search", len(candidates))
	if err != nil {
		return err
	}

	runner := search.NewRunner(sched, a.cfg.Backtest.Contracts, a.cfg.Search.Workers, a.logger)
	results, err := runner.EvaluateAll(ctx, candidates, seriesSet)
	if err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}

	byID := make(map[string][]domain.TradeRecord, len(results))
	order := make([]string, len(results))
	var records []domain.TradeRecord
	for i, res := range results {
		byID[res.Candidate.ID] = res.Records
		order[i] = res.Candidate.ID
		records = append(records, res.Records...)
	}

	validator := stats.NewValidator(a.statsConfig(), a.logger)
	metrics := validator.SummarizeAll(byID, order)

	if err := a.persistResults(ctx, deps, run.ID, records, metrics); err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}
	if err := a.report(ctx, deps, run.ID, records, metrics); err != nil {
		a.failRun(deps, run.ID, err)
		return err
	}
	return deps.RunStore.Finish(ctx, run.ID, domain.RunStatusFinished, "")
}

// PaperMode trades the configured candidate against the live Kalshi ticker
// feed until the context is cancelled.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	sched, err := a.schedule()
	if err != nil {
		return err
	}
	pol, err := a.buildPolicy()
	if err != nil {
		return err
	}

	pemKey, err := crypto.LoadKey(crypto.KeyConfig{
		PrivateKeyPath:   a.cfg.Kalshi.RsaPrivateKeyPath,
		EncryptedKeyPath: a.cfg.Kalshi.EncryptedKeyPath,
		KeyPassword:      a.cfg.Kalshi.KeyPassword,
	})
	if err != nil {
		return err
	}
	rest := kalshi.NewClient(a.cfg.Kalshi.BaseURL, a.cfg.Kalshi.ApiKey)
	if err := rest.SetRSAPrivateKey(pemKey); err != nil {
		return err
	}

	// Confirm every instrument exists and backfill its recent candles so the
	// store is warm before the first live decision.
	now := time.Now().UTC()
	backfillFrom := now.Add(-time.Duration(a.cfg.Paper.WindowMinutes) * time.Minute)
	for _, id := range a.cfg.Paper.Instruments {
		market, err := rest.GetMarket(ctx, id)
		if err != nil {
			return fmt.Errorf("app: check instrument %s: %w", id, err)
		}
		a.logger.Info("instrument verified",
			slog.String("instrument", id),
			slog.String("status", market.Status),
		)

		series, err := rest.GetSeries(ctx, seriesTicker(id), id, backfillFrom, now)
		if err != nil {
			a.logger.Warn("candle backfill skipped",
				slog.String("instrument", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := deps.CandleStore.UpsertBatch(ctx, series.Candles); err != nil {
			a.logger.Warn("candle backfill persist failed",
				slog.String("instrument", id),
				slog.String("error", err.Error()),
			)
		}
		if v := market.SettlementValue(); v != nil {
			if err := deps.CandleStore.SetSettlement(ctx, id, *v); err != nil {
				a.logger.Warn("settlement persist failed",
					slog.String("instrument", id),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	tracker := strategy.NewTracker(deps.PriceCache, a.cfg.Paper.WindowMinutes, a.logger)
	led := ledger.New(sched, a.logger)
	eng := paper.NewEngine(pol, tracker, led,
		deps.TradeLogStore, deps.RunStore, a.cfg.Backtest.Contracts, a.logger)

	feed := paper.NewFeed(kalshi.NewWSClient(a.cfg.Kalshi.WsURL), a.logger)
	if err := feed.Start(ctx, a.cfg.Paper.Instruments); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(ctx, feed.Ticks())
	})
	g.Go(func() error {
		<-ctx.Done()
		return feed.Close()
	})
	return g.Wait()
}

// ReportMode re-renders a persisted run: console tables, CSV files, and the
// optional S3 archive. With no run ID configured it picks the most recent.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	runID := a.cfg.Report.RunID
	if runID == "" {
		recent, err := deps.RunStore.ListRecent(ctx, 1)
		if err != nil {
			return err
		}
		if len(recent) == 0 {
			return fmt.Errorf("app: no runs recorded: %w", domain.ErrNotFound)
		}
		runID = recent[0].ID
	}

	metrics, err := deps.MetricsStore.ListByRun(ctx, runID)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		return fmt.Errorf("app: run %s has no metrics: %w", runID, domain.ErrNotFound)
	}
	records, err := deps.TradeLogStore.ListByRun(ctx, runID, domain.ListOpts{})
	if err != nil {
		return err
	}

	return a.report(ctx, deps, runID, records, metrics)
}

// seriesTicker derives the Kalshi series ticker from a market ticker.
// Market tickers are SERIES-EVENT-MARKET, so the series is the first segment.
func seriesTicker(marketTicker string) string {
	if i := strings.Index(marketTicker, "-"); i > 0 {
		return marketTicker[:i]
	}
	return marketTicker
}

func (a *App) schedule() (fees.Schedule, error) {
	return fees.NewSchedule(a.cfg.Fees.TakerRate, a.cfg.Fees.MakerRate)
}

func (a *App) statsConfig() stats.Config {
	return stats.Config{
		Alpha:               a.cfg.Stats.Alpha,
		AnnualizationFactor: a.cfg.Stats.AnnualizationFactor,
		BootstrapIters:      a.cfg.Stats.BootstrapIters,
		BootstrapSeed:       a.cfg.Stats.BootstrapSeed,
	}
}

func (a *App) grid() search.Grid {
	bands := make([]domain.PriceBand, 0, len(a.cfg.Search.BandMins))
	for i, min := range a.cfg.Search.BandMins {
		bands = append(bands, domain.PriceBand{Min: min, Max: a.cfg.Search.BandMaxs[i]})
	}
	return search.Grid{
		Bands:             bands,
		MoveThresholdsPct: a.cfg.Search.MoveThresholdsPct,
		HoldMinutes:       a.cfg.Search.HoldMinutes,
		LookbackMinutes:   a.cfg.Search.LookbackMinutes,
	}
}

// buildPolicy assembles the single-candidate policy for backtest and paper
// modes: oracle-gated when coefficients are configured, the static rule
// otherwise.
func (a *App) buildPolicy() (strategy.Policy, error) {
	bt := a.cfg.Backtest

	if bt.OracleCoeffsPath != "" {
		scorer, err := oracle.LoadLogistic(bt.OracleCoeffsPath)
		if err != nil {
			return nil, err
		}
		return strategy.NewOracleGatedRule("", scorer, bt.OracleThreshold,
			bt.HoldMinutes, bt.LookbackMinutes, a.logger), nil
	}

	var opts []strategy.StaticRuleOption
	if bt.StopLossDollars > 0 {
		opts = append(opts, strategy.WithStopLoss(bt.StopLossDollars))
	}
	if bt.TakeProfitDollars > 0 {
		opts = append(opts, strategy.WithTakeProfit(bt.TakeProfitDollars))
	}
	return strategy.NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: bt.BandMin, Max: bt.BandMax},
		MoveThresholdPct: bt.MoveThresholdPct,
		HoldMinutes:      bt.HoldMinutes,
		LookbackMinutes:  bt.LookbackMinutes,
	}, opts...), nil
}

// loadSeries resolves the candle series set from the configured source and
// keeps the series cache warm when one is wired.
func (a *App) loadSeries(ctx context.Context, deps *Dependencies) ([]domain.Series, error) {
	var (
		seriesSet []domain.Series
		err       error
	)

	switch a.cfg.Data.Source {
	case "csv":
		seriesSet, err = source.NewLoader(a.cfg.Data.CSVDir, a.logger).LoadAll(ctx)
	case "s3":
		seriesSet, err = source.NewS3Loader(deps.BlobReader, a.cfg.Data.S3Prefix, a.logger).LoadAll(ctx)
	case "postgres":
		seriesSet, err = a.loadSeriesFromStore(ctx, deps)
	default:
		return nil, fmt.Errorf("app: unknown data source %q", a.cfg.Data.Source)
	}
	if err != nil {
		return nil, err
	}
	if len(seriesSet) == 0 {
		return nil, fmt.Errorf("app: data source %q: %w", a.cfg.Data.Source, domain.ErrEmptySeries)
	}

	if deps.SeriesCache != nil {
		for _, s := range seriesSet {
			if err := deps.SeriesCache.SetSeries(ctx, s); err != nil {
				a.logger.Warn("series cache write failed",
					slog.String("instrument", s.InstrumentID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
	return seriesSet, nil
}

func (a *App) loadSeriesFromStore(ctx context.Context, deps *Dependencies) ([]domain.Series, error) {
	ids, err := deps.CandleStore.ListInstruments(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Series, 0, len(ids))
	for _, id := range ids {
		if deps.SeriesCache != nil {
			if s, err := deps.SeriesCache.GetSeries(ctx, id); err == nil {
				out = append(out, s)
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				a.logger.Warn("series cache read failed",
					slog.String("instrument", id),
					slog.String("error", err.Error()),
				)
			}
		}

		s, err := deps.CandleStore.GetSeries(ctx, id)
		if err != nil {
			a.logger.Warn("skipping instrument",
				slog.String("instrument", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := s.Validate(); err != nil {
			a.logger.Warn("skipping instrument",
				slog.String("instrument", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, source.FillGaps(s))
	}
	return out, nil
}

func (a *App) startRun(ctx context.Context, deps *Dependencies, mode string, candidates int) (domain.Run, error) {
	run := domain.Run{
		ID:         uuid.NewString(),
		Mode:       mode,
		StartedAt:  time.Now().UTC(),
		Status:     domain.RunStatusRunning,
		Candidates: candidates,
		Contracts:  a.cfg.Backtest.Contracts,
	}
	if err := deps.RunStore.Create(ctx, run); err != nil {
		return domain.Run{}, err
	}
	a.logger.Info("run started",
		slog.String("run_id", run.ID),
		slog.String("mode", mode),
		slog.Int("candidates", candidates),
	)
	return run, nil
}

// failRun marks the run failed on a best-effort basis. The caller returns
// the original error; a failure to record it only gets logged.
func (a *App) failRun(deps *Dependencies, runID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := deps.RunStore.Finish(ctx, runID, domain.RunStatusFailed, cause.Error()); err != nil {
		a.logger.Warn("recording run failure failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func (a *App) persistResults(ctx context.Context, deps *Dependencies, runID string, records []domain.TradeRecord, metrics []domain.StrategyMetrics) error {
	for i := range records {
		records[i].RunID = runID
	}
	for i := range metrics {
		metrics[i].RunID = runID
	}
	if err := deps.TradeLogStore.InsertBatch(ctx, records); err != nil {
		return err
	}
	return deps.MetricsStore.UpsertBatch(ctx, metrics)
}

// report renders console tables and CSV files, and ships the artifacts to
// object storage when archiving is enabled.
func (a *App) report(ctx context.Context, deps *Dependencies, runID string, records []domain.TradeRecord, metrics []domain.StrategyMetrics) error {
	console := report.NewConsole(os.Stdout, a.cfg.Report.TopN)
	console.PrintMetrics(runID, metrics)

	tradePath, err := report.WriteTradeLogCSV(a.cfg.Report.OutputDir, runID, records)
	if err != nil {
		return err
	}
	metricsPath, err := report.WriteMetricsCSV(a.cfg.Report.OutputDir, runID, metrics)
	if err != nil {
		return err
	}
	a.logger.Info("report written",
		slog.String("trade_log", tradePath),
		slog.String("metrics", metricsPath),
	)

	if a.cfg.Report.ArchiveS3 && deps.Archiver != nil {
		tradeObj, err := deps.Archiver.ArchiveTradeLog(ctx, runID, records)
		if err != nil {
			return err
		}
		metricsObj, err := deps.Archiver.ArchiveMetrics(ctx, runID, metrics)
		if err != nil {
			return err
		}
		a.logger.Info("run archived",
			slog.String("trade_log", tradeObj),
			slog.String("metrics", metricsObj),
		)
	}
	return nil
}
