// Package paper drives the backtest policies against live ticker data.
// Ticks are aggregated into minute candles, policies decide on sealed
// minutes only, and every fill is simulated through the same ledger the
// backtester uses, so paper results are directly comparable to historical
// ones.
package paper

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/fadebot/internal/domain"
	"github.com/alanyoungcy/fadebot/internal/ledger"
	"github.com/alanyoungcy/fadebot/internal/strategy"
)

// Tick is one live price observation.
type Tick struct {
	InstrumentID string
	Price        float64
	TS           time.Time
}

// Engine consumes a tick stream and paper-trades one policy across all
// subscribed instruments. It owns its ledger; all decisions happen on the
// Run goroutine.
type Engine struct {
	policy    strategy.Policy
	tracker   *strategy.Tracker
	ledger    *ledger.Ledger
	trades    domain.TradeLogStore
	runs      domain.RunStore
	runID     string
	contracts int
	logger    *slog.Logger
}

// NewEngine creates a paper engine trading the given contract count per
// signal. The trade and run stores may be nil, in which case the session is
// not persisted.
func NewEngine(
	policy strategy.Policy,
	tracker *strategy.Tracker,
	led *ledger.Ledger,
	trades domain.TradeLogStore,
	runs domain.RunStore,
	contracts int,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		policy:    policy,
		tracker:   tracker,
		ledger:    led,
		trades:    trades,
		runs:      runs,
		runID:     uuid.NewString(),
		contracts: contracts,
		logger:    logger.With(slog.String("component", "paper")),
	}
}

// RunID returns the session identifier used for persisted records.
func (e *Engine) RunID() string { return e.runID }

// Run consumes ticks until the context is canceled or the channel closes.
// Decisions fire only when a minute seals, mirroring the backtest engine's
// one-decision-per-minute loop.
func (e *Engine) Run(ctx context.Context, ticks <-chan Tick) error {
	if e.runs != nil {
		err := e.runs.Create(ctx, domain.Run{
			ID:         e.runID,
			Mode:       "paper",
			StartedAt:  time.Now().UTC(),
			Status:     domain.RunStatusRunning,
			Contracts:  e.contracts,
			Candidates: 1,
		})
		if err != nil {
			return err
		}
	}
	e.logger.Info("paper session started",
		slog.String("run_id", e.runID),
		slog.String("strategy", e.policy.Name()),
	)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case tick, ok := <-ticks:
			if !ok {
				break loop
			}
			if e.tracker.Track(ctx, tick.InstrumentID, tick.Price, tick.TS) {
				e.decide(ctx, tick.InstrumentID)
			}
		}
	}

	if open := e.ledger.OpenPositions(); len(open) > 0 {
		e.logger.Warn("session ended with open positions", slog.Int("count", len(open)))
	}

	if e.runs != nil {
		// The session context is usually canceled at this point; use a
		// fresh one so the final status still lands.
		finCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.runs.Finish(finCtx, e.runID, domain.RunStatusFinished, ""); err != nil {
			e.logger.Warn("finish run failed", slog.String("error", err.Error()))
		}
	}
	e.logger.Info("paper session finished", slog.String("run_id", e.runID))
	return ctx.Err()
}

// decide runs the policy for one instrument on its freshly sealed minute.
// Exit checks run before entry checks, and an exit never re-enters on the
// same minute.
func (e *Engine) decide(ctx context.Context, instrumentID string) {
	hist, ok := e.tracker.History(instrumentID)
	if !ok {
		return
	}
	cur := hist.Current()
	price, ts := cur.Close, cur.TS

	if pos, open := e.ledger.GetOpen(instrumentID, e.policy.Name()); open {
		pos.MarkToMarket(price, ts)
		if e.policy.ShouldExit(pos, hist) {
			rec, err := e.ledger.Close(pos.ID, price, ts)
			if err != nil {
				e.logger.Warn("close failed",
					slog.String("instrument", instrumentID),
					slog.String("error", err.Error()),
				)
				return
			}
			e.persist(ctx, rec)
			e.logger.Info("paper exit",
				slog.String("instrument", instrumentID),
				slog.Float64("price", price),
				slog.Float64("net_pl", rec.NetPL),
			)
		}
		return
	}

	if !e.policy.ShouldEnter(hist) {
		return
	}
	if _, err := e.ledger.Open(instrumentID, e.policy.Name(), price, e.contracts, ts); err != nil {
		e.logger.Warn("open failed",
			slog.String("instrument", instrumentID),
			slog.String("error", err.Error()),
		)
		return
	}
	e.logger.Info("paper entry",
		slog.String("instrument", instrumentID),
		slog.Float64("price", price),
		slog.Int("contracts", e.contracts),
	)
}

func (e *Engine) persist(ctx context.Context, rec domain.TradeRecord) {
	if e.trades == nil {
		return
	}
	rec.RunID = e.runID
	if err := e.trades.InsertBatch(ctx, []domain.TradeRecord{rec}); err != nil {
		e.logger.Warn("trade persist failed",
			slog.String("trade_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}
