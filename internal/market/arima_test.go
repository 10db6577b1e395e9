package market

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPsiWeights(t *testing.T) {
	// AR(1): psi[k] = phi^k.
	psi := psiWeights([]float64{0.5}, nil, 4)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.25, 0.125}, psi, 1e-12)

	// ARMA(1,1): psi[1] = phi + theta, psi[k] = phi * psi[k-1] after that.
	psi = psiWeights([]float64{0.5}, []float64{0.3}, 3)
	assert.InDeltaSlice(t, []float64{1, 0.8, 0.4}, psi, 1e-12)

	assert.Empty(t, psiWeights(nil, nil, 0))
}

func TestDifference(t *testing.T) {
	got := difference([]float64{10, 12, 11, 15})
	assert.Equal(t, []float64{2, -1, 4}, got)
	assert.Empty(t, difference([]float64{7}))
}

func TestMeanModel(t *testing.T) {
	m := &meanModel{}
	require.NoError(t, m.Fit([]float64{10, 20, 30}))

	points, stderrs := m.Forecast(3)
	assert.Equal(t, []float64{20, 20, 20}, points)
	assert.Equal(t, []float64{0, 0, 0}, stderrs)
}

func TestARIMAFitDriftSeries(t *testing.T) {
	// A perfectly linear ramp has a constant differenced series. The fit must
	// resolve to an exact drift model and extend the ramp with zero error.
	values := make([]float64, 40)
	for i := range values {
		values[i] = 100 + 5*float64(i)
	}

	m := newARIMA(priceOrder)
	require.NoError(t, m.Fit(values))
	assert.Zero(t, m.sigma2)
	assert.InDelta(t, 5.0, m.intercept, 1e-9)

	points, stderrs := m.Forecast(4)
	last := values[len(values)-1]
	for k, p := range points {
		assert.InDelta(t, last+5*float64(k+1), p, 1e-9, "step %d", k)
		assert.Zero(t, stderrs[k])
	}
}

func TestARIMAFitTooShort(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	err := newARIMA(quantityOrder).Fit(values)
	assert.ErrorIs(t, err, errSeriesTooShort)
}

func TestARIMAFitNoisySeries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	// AR(1) innovations around a mild upward drift, integrated to levels.
	values := make([]float64, 60)
	level, w := 1000.0, 0.0
	for i := range values {
		w = 0.5*w + rng.NormFloat64()*10
		level += 2 + w
		values[i] = level
	}

	m := newARIMA(quantityOrder)
	require.NoError(t, m.Fit(values))
	assert.Positive(t, m.sigma2)

	points, stderrs := m.Forecast(10)
	require.Len(t, points, 10)
	for k := range points {
		assert.False(t, math.IsNaN(points[k]) || math.IsInf(points[k], 0))
	}
	// Forecast uncertainty never shrinks with the horizon.
	for k := 1; k < len(stderrs); k++ {
		assert.GreaterOrEqual(t, stderrs[k], stderrs[k-1])
	}
}
