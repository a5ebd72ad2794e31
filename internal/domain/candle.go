package domain

import (
	"fmt"
	"time"
)

// Candle is one minute of trading in a single binary contract. Prices are
// quoted in cents, 0-100, the convention used by the Kalshi candlestick API.
type Candle struct {
	InstrumentID string
	TS           time.Time
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
}

// Series is the full ordered minute history of one instrument, from listing
// to expiration. Settlement carries the resolution value (0 or 100) when the
// data source knows the outcome; nil otherwise.
type Series struct {
	InstrumentID string
	Candles      []Candle
	Settlement   *float64
}

// Validate checks that the series is non-empty and strictly ordered in time.
// Equal or decreasing timestamps return ErrSeriesOrder with the offending
// index, so the caller can abandon this instrument and keep going.
func (s Series) Validate() error {
	if len(s.Candles) == 0 {
		return fmt.Errorf("series %s: %w", s.InstrumentID, ErrEmptySeries)
	}
	for i := 1; i < len(s.Candles); i++ {
		if !s.Candles[i].TS.After(s.Candles[i-1].TS) {
			return fmt.Errorf("series %s: candle %d at %s not after candle %d at %s: %w",
				s.InstrumentID, i, s.Candles[i].TS.Format(time.RFC3339),
				i-1, s.Candles[i-1].TS.Format(time.RFC3339), ErrSeriesOrder)
		}
	}
	return nil
}

// ExpirationPrice is the price used when a position is held to the end of the
// series: the settlement value when the outcome is known, otherwise the last
// observed close as a proxy.
func (s Series) ExpirationPrice() float64 {
	if s.Settlement != nil {
		return *s.Settlement
	}
	return s.Candles[len(s.Candles)-1].Close
}
