package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/fadebot/internal/domain"
)

func TestFeeFormula(t *testing.T) {
	s := Default()

	tests := []struct {
		name      string
		contracts int
		price     float64
		taker     bool
		want      float64
	}{
		{"taker at 50", 100, 50, true, 0.07 * 100 * 0.50 * 0.50},
		{"taker at 54", 100, 54, true, 0.07 * 100 * 0.54 * 0.46},
		{"maker at 50", 100, 50, false, 0.0175 * 100 * 0.50 * 0.50},
		{"single contract", 1, 10, true, 0.07 * 0.10 * 0.90},
		{"near tail", 1000, 99, true, 0.07 * 1000 * 0.99 * 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Fee(tt.contracts, tt.price, tt.taker)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestFeeRejectsInvalidInput(t *testing.T) {
	s := Default()

	for _, price := range []float64{0, 100, -5, 101} {
		_, err := s.Fee(100, price, true)
		assert.ErrorIs(t, err, domain.ErrInvalidPrice, "price %g", price)
	}
	for _, contracts := range []int{0, -1} {
		_, err := s.Fee(contracts, 50, true)
		assert.ErrorIs(t, err, domain.ErrInvalidPrice, "contracts %d", contracts)
	}
}

func TestFeeSymmetryAroundFifty(t *testing.T) {
	s := Default()

	for _, p := range []float64{1, 10, 25, 37.5, 49} {
		lo, err := s.Fee(100, p, true)
		require.NoError(t, err)
		hi, err := s.Fee(100, 100-p, true)
		require.NoError(t, err)
		assert.InDelta(t, lo, hi, 1e-12, "fee(%g) != fee(%g)", p, 100-p)
	}
}

func TestFeeMaximalAtFifty(t *testing.T) {
	s := Default()

	atMid, err := s.Fee(100, 50, true)
	require.NoError(t, err)

	for p := 1.0; p < 100; p += 0.5 {
		if p == 50 {
			continue
		}
		f, err := s.Fee(100, p, true)
		require.NoError(t, err)
		assert.Less(t, f, atMid, "fee at %g should be below fee at 50", p)
	}
}

func TestRoundTrip(t *testing.T) {
	s := Default()

	got, err := s.RoundTrip(100, 54, 54)
	require.NoError(t, err)
	// Two taker legs at 54: 2 * 0.07 * 100 * 0.54 * 0.46.
	assert.InDelta(t, 3.4776, got, 1e-9)

	_, err = s.RoundTrip(100, 54, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestBreakEvenEdge(t *testing.T) {
	s := Default()

	edge, err := s.BreakEvenEdge(100, 50)
	require.NoError(t, err)
	// Round trip at 50 costs $3.50 on 100 contracts; each cent of move is $1.
	assert.InDelta(t, 3.5, edge, 1e-9)

	// Edge required shrinks toward the tails.
	tail, err := s.BreakEvenEdge(100, 95)
	require.NoError(t, err)
	assert.Less(t, tail, edge)
}

func TestNewScheduleValidation(t *testing.T) {
	_, err := NewSchedule(1.5, 0.01)
	assert.Error(t, err)
	_, err = NewSchedule(0.07, -0.1)
	assert.Error(t, err)

	s, err := NewSchedule(0.07, 0.0175)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}
