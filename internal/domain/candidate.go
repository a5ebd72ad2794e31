package domain

import "fmt"

// PriceBand is an inclusive entry price range in cents.
type PriceBand struct {
	Min float64
	Max float64
}

// Contains reports whether price falls inside the band.
func (b PriceBand) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

func (b PriceBand) String() string {
	return fmt.Sprintf("%g-%g", b.Min, b.Max)
}

// StrategyCandidate is one point in the parameter grid: a price band, a
// minimum move to fade, and a holding period. The ID is derived from the
// parameters, so the same tuple always evaluates under the same name.
type StrategyCandidate struct {
	ID               string
	Band             PriceBand
	MoveThresholdPct float64
	HoldMinutes      int
	LookbackMinutes  int
}

// CandidateID builds the canonical identifier for a parameter tuple.
func CandidateID(band PriceBand, thresholdPct float64, holdMinutes int) string {
	return fmt.Sprintf("band_%s_move_%g_hold_%d", band, thresholdPct, holdMinutes)
}
