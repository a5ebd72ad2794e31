package oracle

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

func TestLogisticScore(t *testing.T) {
	l := &Logistic{Intercept: 0}

	// Zero weights, zero intercept: probability is exactly one half.
	p, err := l.Score(domain.OracleFeatures{Price: 50, MovePct: 8})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)

	// A positive move weight pushes the score up with the move.
	l = &Logistic{WMovePct: 0.5}
	lo, err := l.Score(domain.OracleFeatures{MovePct: 1})
	require.NoError(t, err)
	hi, err := l.Score(domain.OracleFeatures{MovePct: 10})
	require.NoError(t, err)
	assert.Greater(t, hi, lo)
	assert.Greater(t, lo, 0.5)
	assert.Less(t, hi, 1.0)
}

func TestLogisticRejectsNonFinite(t *testing.T) {
	l := &Logistic{}
	_, err := l.Score(domain.OracleFeatures{Price: math.NaN()})
	assert.Error(t, err)
	_, err = l.Score(domain.OracleFeatures{MovePct: math.Inf(1)})
	assert.Error(t, err)
}

func TestLoadLogistic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coeffs.json")
	payload := `{"intercept":-1.5,"w_move_pct":0.25,"w_price":0.01}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	l, err := LoadLogistic(path)
	require.NoError(t, err)
	assert.Equal(t, -1.5, l.Intercept)
	assert.Equal(t, 0.25, l.WMovePct)

	_, err = LoadLogistic(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadLogistic(bad)
	assert.Error(t, err)
}
