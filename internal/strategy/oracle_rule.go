package strategy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// OracleGatedRule defers the entry decision to an external probability
// oracle: enter when the oracle scores the current window at or above the
// threshold. Exits follow the same fixed holding period as StaticRule.
type OracleGatedRule struct {
	name      string
	oracle    domain.EntryOracle
	threshold float64
	hold      time.Duration
	lookback  int
	logger    *slog.Logger
}

// NewOracleGatedRule wires an oracle behind an entry gate. Threshold is a
// probability in [0, 1]; lookback feeds the oracle's move feature.
func NewOracleGatedRule(name string, oracle domain.EntryOracle, threshold float64, holdMinutes, lookbackMinutes int, logger *slog.Logger) *OracleGatedRule {
	if lookbackMinutes <= 0 {
		lookbackMinutes = 1
	}
	if name == "" {
		name = fmt.Sprintf("oracle_thr_%g_hold_%d", threshold, holdMinutes)
	}
	return &OracleGatedRule{
		name:      name,
		oracle:    oracle,
		threshold: threshold,
		hold:      time.Duration(holdMinutes) * time.Minute,
		lookback:  lookbackMinutes,
		logger:    logger.With(slog.String("strategy", name)),
	}
}

// Name returns the rule identifier.
func (r *OracleGatedRule) Name() string { return r.name }

// ShouldEnter asks the oracle to score the observable window. An oracle
// error means no entry; a strategy never aborts a backtest over a bad score.
func (r *OracleGatedRule) ShouldEnter(h History) bool {
	score, err := r.oracle.Score(h.Features(r.lookback))
	if err != nil {
		r.logger.Warn("oracle score failed, skipping entry", slog.String("error", err.Error()))
		return false
	}
	return score >= r.threshold
}

// ShouldExit exits once the holding period has elapsed.
func (r *OracleGatedRule) ShouldExit(pos *domain.Position, h History) bool {
	return pos.HeldFor(h.Current().TS) >= r.hold
}
