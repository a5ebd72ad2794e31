package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

var base = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func minuteCloses(closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		out[i] = domain.Candle{
			InstrumentID: "inst",
			TS:           base.Add(time.Duration(i) * time.Minute),
			Open:         c, High: c, Low: c, Close: c,
		}
	}
	return out
}

func TestStaticRuleEntry(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      3,
	})

	tests := []struct {
		name   string
		closes []float64
		want   bool
	}{
		{"move above threshold", []float64{50, 54}, true},
		{"move below threshold", []float64{50, 52}, false},
		{"move exactly at threshold is not enough", []float64{100, 105}, false},
		{"down move also triggers", []float64{54, 50}, true},
		{"no prior candle", []float64{54}, false},
		{"zero base price skips the minute", []float64{0, 54}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := minuteCloses(tt.closes...)
			h := NewHistory(candles, len(candles)-1)
			assert.Equal(t, tt.want, rule.ShouldEnter(h))
		})
	}
}

func TestStaticRuleBand(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 90, Max: 95},
		MoveThresholdPct: 2,
		HoldMinutes:      3,
	})

	// Big move but price outside the band.
	h := NewHistory(minuteCloses(80, 88), 1)
	assert.False(t, rule.ShouldEnter(h))

	// Band edges are inclusive.
	h = NewHistory(minuteCloses(87, 90), 1)
	assert.True(t, rule.ShouldEnter(h))
	h = NewHistory(minuteCloses(90, 95), 1)
	assert.True(t, rule.ShouldEnter(h))
}

func TestStaticRuleLookback(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      3,
		LookbackMinutes:  3,
	})

	// 50 -> 54 over three minutes: 8% over the lookback window.
	h := NewHistory(minuteCloses(50, 51, 52, 54), 3)
	assert.True(t, rule.ShouldEnter(h))

	// Only two minutes of history for a three-minute lookback.
	h = NewHistory(minuteCloses(50, 54), 1)
	assert.False(t, rule.ShouldEnter(h))
}

func TestStaticRuleTimeExit(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      3,
	})

	candles := minuteCloses(50, 54, 54, 54, 54, 54)
	pos := &domain.Position{EntryPrice: 54, Size: 100, OpenedAt: candles[1].TS}

	for i, want := range map[int]bool{1: false, 2: false, 3: false, 4: true, 5: true} {
		pos.MarkToMarket(candles[i].Close, candles[i].TS)
		assert.Equal(t, want, rule.ShouldExit(pos, NewHistory(candles, i)), "minute %d", i)
	}
}

func TestStaticRuleEarlyExits(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      30,
	}, WithStopLoss(2), WithTakeProfit(3))

	candles := minuteCloses(50, 54, 51, 58)
	pos := &domain.Position{EntryPrice: 54, Size: 100, OpenedAt: candles[1].TS}

	// Unrealized -$3 breaches the $2 stop.
	pos.MarkToMarket(51, candles[2].TS)
	assert.True(t, rule.ShouldExit(pos, NewHistory(candles, 2)))

	// Unrealized +$4 breaches the $3 target.
	pos.MarkToMarket(58, candles[3].TS)
	assert.True(t, rule.ShouldExit(pos, NewHistory(candles, 3)))

	// Inside both bands, inside the hold: stay.
	pos.MarkToMarket(55, candles[2].TS)
	assert.False(t, rule.ShouldExit(pos, NewHistory(candles, 2)))
}

func TestStaticRuleDerivesID(t *testing.T) {
	rule := NewStaticRule(domain.StrategyCandidate{
		Band:             domain.PriceBand{Min: 1, Max: 99},
		MoveThresholdPct: 5,
		HoldMinutes:      3,
	})
	assert.Equal(t, "band_1-99_move_5_hold_3", rule.Name())
	assert.Equal(t, 1, rule.Candidate().LookbackMinutes)
}

type stubOracle struct {
	score float64
	err   error
	seen  []domain.OracleFeatures
}

func (s *stubOracle) Score(f domain.OracleFeatures) (float64, error) {
	s.seen = append(s.seen, f)
	return s.score, s.err
}

func TestOracleGatedRule(t *testing.T) {
	logger := discardLogger()

	h := NewHistory(minuteCloses(50, 54), 1)

	enter := NewOracleGatedRule("", &stubOracle{score: 0.9}, 0.7, 3, 1, logger)
	assert.True(t, enter.ShouldEnter(h))
	assert.Equal(t, "oracle_thr_0.7_hold_3", enter.Name())

	skip := NewOracleGatedRule("", &stubOracle{score: 0.5}, 0.7, 3, 1, logger)
	assert.False(t, skip.ShouldEnter(h))

	// Threshold is inclusive.
	edge := NewOracleGatedRule("", &stubOracle{score: 0.7}, 0.7, 3, 1, logger)
	assert.True(t, edge.ShouldEnter(h))

	failing := NewOracleGatedRule("", &stubOracle{err: assert.AnError}, 0.1, 3, 1, logger)
	assert.False(t, failing.ShouldEnter(h))
}

func TestOracleSeesOnlyObservableFeatures(t *testing.T) {
	oracle := &stubOracle{score: 1}
	rule := NewOracleGatedRule("gate", oracle, 0.5, 3, 1, discardLogger())

	candles := minuteCloses(50, 54, 60, 70)
	rule.ShouldEnter(NewHistory(candles, 1))

	require.Len(t, oracle.seen, 1)
	f := oracle.seen[0]
	assert.Equal(t, 54.0, f.Price)
	assert.InDelta(t, 8.0, f.MovePct, 1e-9)
	assert.Equal(t, 1, f.MinutesElapsed)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(NewStaticRule(domain.StrategyCandidate{
		Band: domain.PriceBand{Min: 1, Max: 99}, MoveThresholdPct: 5, HoldMinutes: 3,
	}))
	r.Register(NewOracleGatedRule("gate", &stubOracle{score: 1}, 0.5, 3, 1, discardLogger()))

	assert.Equal(t, []string{"band_1-99_move_5_hold_3", "gate"}, r.List())

	p, err := r.Get("gate")
	require.NoError(t, err)
	assert.Equal(t, "gate", p.Name())

	_, err = r.Get("missing")
	assert.Error(t, err)
}
