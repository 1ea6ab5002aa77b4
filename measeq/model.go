// Package measeq defines the measurement-equation capability used by the
// regression driver: a model exposes its coefficient and variable counts and
// evaluates the predicted response for one record. One concrete model exists
// per sensor family; the driver is generic over the interface.
package measeq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/errs"
)

// Model is one sensor family's measurement equation.
//
// Evaluate must be a pure function of its arguments: the regression driver
// calls it repeatedly with perturbed inputs during Jacobian evaluation.
type Model interface {
	// CoefficientCount returns the number of calibration coefficients.
	CoefficientCount() int
	// VariableCount returns the number of explanatory variables.
	VariableCount() int
	// Evaluate returns the predicted response for one record given the
	// explanatory values x (len VariableCount) and coefficients beta
	// (len CoefficientCount).
	Evaluate(x, beta []float64) float64
}

// Predict evaluates the model for every row of X.
//
// Returns a configuration error if X's column count or beta's length does
// not match the model's declared dimensions.
func Predict(m Model, x mat.Matrix, beta []float64) ([]float64, error) {
	n, cols := x.Dims()
	if cols != m.VariableCount() {
		return nil, fmt.Errorf("%w: X has %d columns, model wants %d",
			errs.ErrModelDimension, cols, m.VariableCount())
	}
	if len(beta) != m.CoefficientCount() {
		return nil, fmt.Errorf("%w: got %d coefficients, model wants %d",
			errs.ErrModelDimension, len(beta), m.CoefficientCount())
	}

	row := make([]float64, cols)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		mat.Row(row, i, x)
		y[i] = m.Evaluate(row, beta)
	}

	return y, nil
}
