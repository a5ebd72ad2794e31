package domain

// OracleFeatures are the observable inputs an entry oracle may use. They are
// computed strictly from candles at or before the decision minute.
type OracleFeatures struct {
	Price          float64 // current close, cents
	MovePct        float64 // percent move over the lookback window
	Volatility     float64 // std of closes over the recent window
	MinutesElapsed int     // minutes since the start of the series
	Volume         float64 // current minute volume
}

// EntryOracle scores an entry opportunity with a probability in [0, 1].
// Implementations must not consult anything beyond the supplied features.
type EntryOracle interface {
	Score(f OracleFeatures) (float64, error)
}
