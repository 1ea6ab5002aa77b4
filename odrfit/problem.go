// Package odrfit fits a measurement-equation model to matchup data with a
// weighted orthogonal-distance regression: both the response and the
// explanatory variables carry uncertainty, and coefficients or variables can
// be held fixed at their provided values.
//
// The solver is separable: for a candidate coefficient vector it first
// resolves each record's orthogonal adjustments independently (a small
// closed-form subproblem per record), then takes a damped Gauss-Newton step
// on the free coefficients. No errors-in-variables solver exists in the Go
// ecosystem, so the driver carries its own; all linear algebra runs on
// gonum.
package odrfit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/measeq"
)

// Default solver controls.
const (
	// DefaultMaxIterations caps the outer iterations; a non-converging fit
	// returns StopMaxIterations rather than hanging.
	DefaultMaxIterations = 50
	// DefaultObjectiveTol is the relative sum-of-squares improvement below
	// which the fit counts as converged.
	DefaultObjectiveTol = 1e-12
	// DefaultStepTol is the relative coefficient-step norm below which the
	// fit counts as parameter-converged.
	DefaultStepTol = 1e-10
)

// Problem describes one weighted orthogonal-distance fit.
//
// Uncertainties enter as per-element sigmas; the solver weights residuals by
// inverse variance. An explanatory element with sigma zero is treated as
// exact: it receives no orthogonal adjustment. Response sigmas must be
// positive for every record.
type Problem struct {
	// Model is the measurement equation to fit.
	Model measeq.Model
	// X is the n-by-m explanatory variable matrix.
	X *mat.Dense
	// Y is the response vector, one value per record.
	Y []float64
	// XSigma holds the per-element uncertainty of X, same shape as X.
	XSigma *mat.Dense
	// YSigma holds the per-record uncertainty of Y.
	YSigma []float64
	// Beta0 is the initial coefficient vector. Fixed coefficients keep
	// these values through the fit.
	Beta0 []float64
	// FixBeta marks coefficients held constant (true = fixed). Nil means
	// all coefficients are free.
	FixBeta []bool
	// FixX marks variable columns held constant (true = fixed): the column
	// receives no orthogonal adjustment. Nil means all variables are free.
	FixX []bool

	// MaxIterations overrides DefaultMaxIterations when positive.
	MaxIterations int
	// ObjectiveTol overrides DefaultObjectiveTol when positive.
	ObjectiveTol float64
	// StepTol overrides DefaultStepTol when positive.
	StepTol float64
}

// validate checks shapes and masks before any iteration runs; violations
// are configuration errors.
func (p *Problem) validate() error {
	if p.Model == nil {
		return fmt.Errorf("%w: nil model", errs.ErrModelDimension)
	}
	if p.X == nil || p.XSigma == nil {
		return fmt.Errorf("%w: nil X or XSigma", errs.ErrShapeMismatch)
	}
	n, m := p.X.Dims()
	if n == 0 {
		return errs.ErrEmptyDataset
	}
	if m != p.Model.VariableCount() {
		return fmt.Errorf("%w: X has %d columns, model wants %d",
			errs.ErrModelDimension, m, p.Model.VariableCount())
	}
	if sn, sm := p.XSigma.Dims(); sn != n || sm != m {
		return fmt.Errorf("%w: XSigma is %dx%d, X is %dx%d", errs.ErrShapeMismatch, sn, sm, n, m)
	}
	if len(p.Y) != n {
		return fmt.Errorf("%w: Y has %d values, X has %d rows", errs.ErrShapeMismatch, len(p.Y), n)
	}
	if len(p.YSigma) != n {
		return fmt.Errorf("%w: YSigma has %d values, want %d", errs.ErrShapeMismatch, len(p.YSigma), n)
	}
	for i, s := range p.YSigma {
		if s <= 0 {
			return fmt.Errorf("%w: YSigma[%d] = %g, must be positive", errs.ErrNegativeUncertainty, i, s)
		}
	}

	pc := p.Model.CoefficientCount()
	if len(p.Beta0) != pc {
		return fmt.Errorf("%w: Beta0 has %d values, model wants %d",
			errs.ErrModelDimension, len(p.Beta0), pc)
	}
	if p.FixBeta != nil && len(p.FixBeta) != pc {
		return fmt.Errorf("%w: FixBeta has %d entries, want %d", errs.ErrMaskLength, len(p.FixBeta), pc)
	}
	if p.FixX != nil && len(p.FixX) != m {
		return fmt.Errorf("%w: FixX has %d entries, want %d", errs.ErrMaskLength, len(p.FixX), m)
	}
	free := 0
	for k := 0; k < pc; k++ {
		if p.FixBeta == nil || !p.FixBeta[k] {
			free++
		}
	}
	if free == 0 {
		return fmt.Errorf("%w: all coefficients fixed", errs.ErrMaskLength)
	}

	return nil
}

func (p *Problem) maxIterations() int {
	if p.MaxIterations > 0 {
		return p.MaxIterations
	}

	return DefaultMaxIterations
}

func (p *Problem) objectiveTol() float64 {
	if p.ObjectiveTol > 0 {
		return p.ObjectiveTol
	}

	return DefaultObjectiveTol
}

func (p *Problem) stepTol() float64 {
	if p.StepTol > 0 {
		return p.StepTol
	}

	return DefaultStepTol
}
