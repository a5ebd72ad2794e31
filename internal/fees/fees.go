// Package fees implements the exchange fee schedule for binary contracts.
// Fees scale with the variance of the contract price: rate * contracts *
// (p/100) * (1 - p/100), so a fill at 50 costs the most and fills near the
// tails cost almost nothing.
package fees

import (
	"fmt"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Kalshi's published rates for NBA markets.
const (
	DefaultTakerRate = 0.07
	DefaultMakerRate = 0.0175
)

// Schedule holds the per-fill fee rates.
type Schedule struct {
	TakerRate float64
	MakerRate float64
}

// NewSchedule validates the rates up front so a bad config fails at startup
// rather than mispricing every trade.
func NewSchedule(takerRate, makerRate float64) (Schedule, error) {
	if takerRate < 0 || takerRate > 1 {
		return Schedule{}, fmt.Errorf("fees: taker rate %g outside [0,1]", takerRate)
	}
	if makerRate < 0 || makerRate > 1 {
		return Schedule{}, fmt.Errorf("fees: maker rate %g outside [0,1]", makerRate)
	}
	return Schedule{TakerRate: takerRate, MakerRate: makerRate}, nil
}

// Default returns the standard Kalshi schedule.
func Default() Schedule {
	return Schedule{TakerRate: DefaultTakerRate, MakerRate: DefaultMakerRate}
}

// Fee computes the fee in dollars for a single fill of contracts at price
// (cents, exclusive 0-100). Taker selects which rate applies.
func (s Schedule) Fee(contracts int, price float64, taker bool) (float64, error) {
	if contracts <= 0 {
		return 0, fmt.Errorf("fees: %d contracts: %w", contracts, domain.ErrInvalidPrice)
	}
	if price <= 0 || price >= 100 {
		return 0, fmt.Errorf("fees: price %g: %w", price, domain.ErrInvalidPrice)
	}
	rate := s.TakerRate
	if !taker {
		rate = s.MakerRate
	}
	p := price / 100
	return rate * float64(contracts) * p * (1 - p), nil
}

// RoundTrip computes the total taker cost of entering at entryPrice and
// exiting at exitPrice with the same contract count.
func (s Schedule) RoundTrip(contracts int, entryPrice, exitPrice float64) (float64, error) {
	entry, err := s.Fee(contracts, entryPrice, true)
	if err != nil {
		return 0, err
	}
	exit, err := s.Fee(contracts, exitPrice, true)
	if err != nil {
		return 0, err
	}
	return entry + exit, nil
}

// BreakEvenEdge returns the price move in cents a round trip at price must
// capture before it turns a profit. Assumes both legs fill near the same
// price, which holds for the short holds this system trades.
func (s Schedule) BreakEvenEdge(contracts int, price float64) (float64, error) {
	cost, err := s.RoundTrip(contracts, price, price)
	if err != nil {
		return 0, err
	}
	// One cent of move on one contract is worth $0.01.
	return cost / (float64(contracts) * 0.01), nil
}
