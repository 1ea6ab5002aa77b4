package odrfit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StopReason encodes why the solver halted. It is recorded alongside every
// Monte Carlo trial's coefficients so downstream covariance estimation can
// exclude or flag non-converged trials instead of losing them.
type StopReason int

const (
	// StopConverged means the weighted sum of squares stopped improving
	// within tolerance.
	StopConverged StopReason = iota + 1
	// StopParamConverged means the coefficient step shrank below tolerance.
	StopParamConverged
	// StopMaxIterations means the iteration cap was reached first.
	StopMaxIterations
	// StopNumericalError means a step could not be computed (singular or
	// indefinite normal equations even under heavy damping).
	StopNumericalError
)

var stopNames = map[StopReason]string{
	StopConverged:      "converged",
	StopParamConverged: "parameter-converged",
	StopMaxIterations:  "max-iterations",
	StopNumericalError: "numerical-error",
}

// String returns the stop reason's name.
func (s StopReason) String() string {
	if name, ok := stopNames[s]; ok {
		return name
	}

	return "unknown"
}

// Converged reports whether the fit reached a convergence criterion.
func (s StopReason) Converged() bool {
	return s == StopConverged || s == StopParamConverged
}

// Result is the outcome of one weighted orthogonal-distance fit.
//
// A Result is returned for every invocation, converged or not: Stop carries
// the termination reason, and the coefficient fields hold the last iterate.
type Result struct {
	// Beta is the fitted coefficient vector (fixed coefficients keep their
	// provided values).
	Beta []float64
	// Cov is the coefficient covariance estimate. Rows and columns of fixed
	// coefficients are zero. Nil if the covariance could not be evaluated.
	Cov *mat.SymDense
	// XPlus is the best estimate of the explanatory variables: the input X
	// plus the fitted orthogonal adjustments.
	XPlus *mat.Dense
	// YHat is the model evaluated at XPlus and Beta.
	YHat []float64
	// Residuals holds y - YHat per record.
	Residuals []float64
	// SumSquares is the final weighted objective value.
	SumSquares float64
	// Iterations is the number of outer iterations performed.
	Iterations int
	// Stop is the solver's termination reason.
	Stop StopReason
}

// Converged reports whether the fit reached a convergence criterion.
func (r *Result) Converged() bool {
	return r.Stop.Converged()
}

// String summarises the fit for run reports.
func (r *Result) String() string {
	return fmt.Sprintf("Result{Stop: %s, Iterations: %d, SumSquares: %.6g, Beta: %v}",
		r.Stop, r.Iterations, r.SumSquares, r.Beta)
}
