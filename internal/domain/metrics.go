package domain

// StrategyMetrics summarizes one candidate's trade sample together with the
// significance tests run over it. Metrics that need at least two trades carry
// NaN when the sample is too small, and Degenerate marks candidates whose
// p-value is undefined so the correction layer can leave them out of its
// denominators.
type StrategyMetrics struct {
	StrategyID string
	RunID      string

	Trades int
	Wins   int

	WinRate     float64
	WinRateLow  float64 // Wilson score interval
	WinRateHigh float64

	TotalNetPL  float64
	TotalFees   float64
	MeanNetPL   float64
	MedianNetPL float64
	StdNetPL    float64

	Sharpe       float64
	MaxDrawdown  float64
	ProfitFactor float64

	TStat   float64
	PValue  float64
	CohensD float64

	BootstrapLow  float64
	BootstrapHigh float64

	PAdjusted             float64 // Benjamini-Hochberg adjusted p-value
	BonferroniSignificant bool
	FDRSignificant        bool
	Degenerate            bool
}
