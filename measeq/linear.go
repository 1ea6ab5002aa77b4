package measeq

// Linear is an affine measurement equation over m variables:
//
//	Y = b0 + b1*X1 + ... + bm*Xm
//
// It is the reference model for validating Monte Carlo covariance against
// the solver-reported covariance, where the two have a known relationship.
type Linear struct {
	vars int
}

var _ Model = (*Linear)(nil)

// NewLinear creates an affine model over vars explanatory variables, with
// vars+1 coefficients.
func NewLinear(vars int) *Linear {
	return &Linear{vars: vars}
}

// CoefficientCount returns the intercept plus one slope per variable.
func (l *Linear) CoefficientCount() int { return l.vars + 1 }

// VariableCount returns the number of explanatory variables.
func (l *Linear) VariableCount() int { return l.vars }

// Evaluate computes the affine response for one record.
func (l *Linear) Evaluate(x, beta []float64) float64 {
	y := beta[0]
	for j := 0; j < l.vars; j++ {
		y += beta[j+1] * x[j]
	}

	return y
}
