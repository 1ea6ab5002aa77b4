package measeq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/matchup"
)

func TestAVHRREvaluate(t *testing.T) {
	m := NewAVHRR()
	require.Equal(t, 4, m.CoefficientCount())
	require.Equal(t, matchup.NumVariables, m.VariableCount())

	x := make([]float64, matchup.NumVariables)
	x[matchup.SpaceCount] = 990
	x[matchup.ICTCount] = 850
	x[matchup.EarthCount] = 400
	x[matchup.ICTRadiance] = 95
	x[matchup.OrbitTemp] = 288

	beta := []float64{1.5, 0.01, 2e-5, 3e-3}

	gain := (DefaultEmissivity + 0.01) * 95 * (990 - 400) / (990 - 850)
	want := 1.5 + gain + 2e-5*(850-400)*(990-400) + 3e-3*288
	assert.InDelta(t, want, m.Evaluate(x, beta), 1e-10)
}

func TestAVHRRCustomEmissivity(t *testing.T) {
	m := NewAVHRRWithEmissivity(1.0)

	x := make([]float64, matchup.NumVariables)
	x[matchup.SpaceCount] = 1000
	x[matchup.ICTCount] = 900
	x[matchup.EarthCount] = 500
	x[matchup.ICTRadiance] = 100

	// With zero coefficients only the emissivity gain term survives.
	beta := []float64{0, 0, 0, 0}
	assert.InDelta(t, 100*(1000-500)/(1000-900), m.Evaluate(x, beta), 1e-10)
}

func TestLinearEvaluate(t *testing.T) {
	m := NewLinear(2)
	require.Equal(t, 3, m.CoefficientCount())
	require.Equal(t, 2, m.VariableCount())

	assert.Equal(t, 1.0+2*3+4*5, m.Evaluate([]float64{3, 5}, []float64{1, 2, 4}))
}

func TestPredict(t *testing.T) {
	m := NewLinear(2)
	x := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})

	y, err := Predict(m, x, []float64{10, 1, -1})
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 9, 9}, y)
}

func TestPredictDimensionErrors(t *testing.T) {
	m := NewLinear(2)

	_, err := Predict(m, mat.NewDense(3, 4, nil), []float64{0, 0, 0})
	require.ErrorIs(t, err, errs.ErrModelDimension)

	_, err = Predict(m, mat.NewDense(3, 2, nil), []float64{0, 0})
	require.ErrorIs(t, err, errs.ErrModelDimension)
}
