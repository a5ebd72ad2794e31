package strategy

import (
	"math"
	"time"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// StaticRule fades sharp moves inside a price band: enter when the price sits
// in [Band.Min, Band.Max] and has moved more than MoveThresholdPct over the
// lookback window, exit after HoldMinutes. Optional stop-loss and take-profit
// levels (in dollars of unrealized P/L) cut the hold short.
type StaticRule struct {
	candidate  domain.StrategyCandidate
	hold       time.Duration
	stopLoss   *float64
	takeProfit *float64
}

// StaticRuleOption customizes a StaticRule beyond its grid parameters.
type StaticRuleOption func(*StaticRule)

// WithStopLoss exits early once unrealized loss reaches dollars.
func WithStopLoss(dollars float64) StaticRuleOption {
	return func(r *StaticRule) { r.stopLoss = &dollars }
}

// WithTakeProfit exits early once unrealized gain reaches dollars.
func WithTakeProfit(dollars float64) StaticRuleOption {
	return func(r *StaticRule) { r.takeProfit = &dollars }
}

// NewStaticRule builds the rule for one grid candidate. A zero lookback
// defaults to one minute, and a missing ID is derived from the parameters.
func NewStaticRule(c domain.StrategyCandidate, opts ...StaticRuleOption) *StaticRule {
	if c.LookbackMinutes <= 0 {
		c.LookbackMinutes = 1
	}
	if c.ID == "" {
		c.ID = domain.CandidateID(c.Band, c.MoveThresholdPct, c.HoldMinutes)
	}
	r := &StaticRule{
		candidate: c,
		hold:      time.Duration(c.HoldMinutes) * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the candidate identifier.
func (r *StaticRule) Name() string { return r.candidate.ID }

// Candidate returns the grid parameters this rule was built from.
func (r *StaticRule) Candidate() domain.StrategyCandidate { return r.candidate }

// ShouldEnter reports whether the decision minute triggers an entry. A
// zero base price over the lookback window never triggers; the minute is
// skipped rather than treated as an infinite move.
func (r *StaticRule) ShouldEnter(h History) bool {
	cur := h.Current().Close
	if !r.candidate.Band.Contains(cur) {
		return false
	}
	move, ok := h.MovePct(r.candidate.LookbackMinutes)
	if !ok {
		return false
	}
	return math.Abs(move) > r.candidate.MoveThresholdPct
}

// ShouldExit reports whether the position has run its holding period or hit
// an early-exit level. The engine marks the position to market before asking.
func (r *StaticRule) ShouldExit(pos *domain.Position, h History) bool {
	if pos.HeldFor(h.Current().TS) >= r.hold {
		return true
	}
	if r.stopLoss != nil && pos.UnrealizedPL <= -*r.stopLoss {
		return true
	}
	if r.takeProfit != nil && pos.UnrealizedPL >= *r.takeProfit {
		return true
	}
	return false
}
