package strategy

import (
	"math"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// History is a look-back-only view over one instrument's candles. Index idx
// is the decision minute; candles after it are unreachable through this type,
// which is how the engine keeps policies from peeking at the future.
type History struct {
	candles []domain.Candle
	idx     int
}

// NewHistory wraps candles with the decision minute at idx. The caller is
// responsible for idx being in range.
func NewHistory(candles []domain.Candle, idx int) History {
	return History{candles: candles, idx: idx}
}

// Current returns the decision-minute candle.
func (h History) Current() domain.Candle { return h.candles[h.idx] }

// Len returns the number of observable candles, decision minute included.
func (h History) Len() int { return h.idx + 1 }

// At returns the candle k minutes before the decision minute. ok is false
// when the window does not extend that far back.
func (h History) At(k int) (domain.Candle, bool) {
	if k < 0 || k > h.idx {
		return domain.Candle{}, false
	}
	return h.candles[h.idx-k], true
}

// MovePct returns the percent price change over the last k minutes,
// (p_t - p_{t-k}) / p_{t-k} * 100. ok is false when fewer than k minutes of
// history exist or the base price is zero, so callers skip the minute
// instead of dividing by zero.
func (h History) MovePct(k int) (float64, bool) {
	prev, ok := h.At(k)
	if !ok || prev.Close == 0 {
		return 0, false
	}
	cur := h.Current().Close
	return (cur - prev.Close) / prev.Close * 100, true
}

// Volatility returns the population standard deviation of the closes over
// the last window minutes (decision minute included), or 0 with fewer than
// two observations.
func (h History) Volatility(window int) float64 {
	start := h.idx - window + 1
	if start < 0 {
		start = 0
	}
	pts := h.candles[start : h.idx+1]
	if len(pts) < 2 {
		return 0
	}
	var sum float64
	for _, c := range pts {
		sum += c.Close
	}
	mean := sum / float64(len(pts))
	var variance float64
	for _, c := range pts {
		d := c.Close - mean
		variance += d * d
	}
	variance /= float64(len(pts))
	return math.Sqrt(variance)
}

// Features extracts oracle inputs from the observable window using lookback
// k for the move component.
func (h History) Features(k int) domain.OracleFeatures {
	move, _ := h.MovePct(k)
	cur := h.Current()
	return domain.OracleFeatures{
		Price:          cur.Close,
		MovePct:        move,
		Volatility:     h.Volatility(10),
		MinutesElapsed: h.idx,
		Volume:         float64(cur.Volume),
	}
}
