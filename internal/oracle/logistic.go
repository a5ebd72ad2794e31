// Package oracle provides entry-probability scorers. The coefficients come
// from an offline training pipeline and are consumed here as a black box:
// load, score, nothing else.
package oracle

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

// Logistic scores an entry as sigmoid(intercept + w · features).
type Logistic struct {
	Intercept   float64 `json:"intercept"`
	WPrice      float64 `json:"w_price"`
	WMovePct    float64 `json:"w_move_pct"`
	WVolatility float64 `json:"w_volatility"`
	WElapsed    float64 `json:"w_minutes_elapsed"`
	WVolume     float64 `json:"w_volume"`
}

var _ domain.EntryOracle = (*Logistic)(nil)

// LoadLogistic reads coefficients from a JSON file written by the training
// pipeline.
func LoadLogistic(path string) (*Logistic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("oracle: read %s: %w", path, err)
	}
	var l Logistic
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("oracle: parse %s: %w", path, err)
	}
	return &l, nil
}

// Score returns the entry probability for the features. Non-finite inputs
// are rejected so a corrupted window cannot silently gate an entry.
func (l *Logistic) Score(f domain.OracleFeatures) (float64, error) {
	for name, v := range map[string]float64{
		"price": f.Price, "move_pct": f.MovePct, "volatility": f.Volatility, "volume": f.Volume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("oracle: non-finite feature %s", name)
		}
	}
	z := l.Intercept +
		l.WPrice*f.Price +
		l.WMovePct*f.MovePct +
		l.WVolatility*f.Volatility +
		l.WElapsed*float64(f.MinutesElapsed) +
		l.WVolume*f.Volume
	return 1 / (1 + math.Exp(-z)), nil
}
