package odrfit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/measeq"
)

// derivStep is the forward-difference base step (square root of the float64
// machine epsilon), scaled by the magnitude of the point.
const derivStep = 1.4901161193847656e-08

// maxDamping bounds the Levenberg-Marquardt damping factor; beyond it no
// useful step exists and the fit stops with a numerical-error status.
const maxDamping = 1e12

// innerIterations caps the per-record orthogonal-adjustment refinement. The
// subproblem is exact for locally linear models, so a handful of iterations
// suffices.
const innerIterations = 12

// Fit solves the problem.
//
// The returned error covers configuration faults only (shapes, masks,
// degenerate sigmas); solver failures and non-convergence are reported
// through Result.Stop so every invocation yields a recordable result.
func (p *Problem) Fit() (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	return newSolver(p).run(), nil
}

type solver struct {
	p     *Problem
	model measeq.Model

	n, m, pc int
	freeB    []int

	wy []float64  // inverse response variance per record
	wx *mat.Dense // inverse variance per X element; zero marks a pinned element

	objTol  float64
	stepTol float64
	maxIter int
}

func newSolver(p *Problem) *solver {
	n, m := p.X.Dims()
	s := &solver{
		p:       p,
		model:   p.Model,
		n:       n,
		m:       m,
		pc:      p.Model.CoefficientCount(),
		wy:      make([]float64, n),
		wx:      mat.NewDense(n, m, nil),
		objTol:  p.objectiveTol(),
		stepTol: p.stepTol(),
		maxIter: p.maxIterations(),
	}

	for k := 0; k < s.pc; k++ {
		if p.FixBeta == nil || !p.FixBeta[k] {
			s.freeB = append(s.freeB, k)
		}
	}

	for i := 0; i < n; i++ {
		sy := p.YSigma[i]
		s.wy[i] = 1 / (sy * sy)
		for j := 0; j < m; j++ {
			if p.FixX != nil && p.FixX[j] {
				continue // pinned column, weight stays zero
			}
			sx := p.XSigma.At(i, j)
			if sx > 0 {
				s.wx.Set(i, j, 1/(sx*sx))
			}
		}
	}

	return s
}

// innerSolve resolves one record's orthogonal adjustments for the given
// coefficients. The subproblem minimises
//
//	wy*(y - f(x+delta))^2 + sum_j wx_j*delta_j^2
//
// over the free elements of delta. Linearising f turns each refinement into
// a rank-one update with a closed-form solution, so no matrix factorisation
// is needed per record.
func (s *solver) innerSolve(i int, beta, delta []float64) (eps float64) {
	x0 := s.p.X.RawRowView(i)
	y := s.p.Y[i]
	wy := s.wy[i]

	for j := range delta {
		delta[j] = 0
	}

	xcur := make([]float64, s.m)
	grad := make([]float64, s.m)
	next := make([]float64, s.m)

	for it := 0; it < innerIterations; it++ {
		for j := 0; j < s.m; j++ {
			xcur[j] = x0[j] + delta[j]
		}
		f0 := s.model.Evaluate(xcur, beta)

		// Gradient of f over the free elements, plus the Sherman-Morrison
		// scalar for the rank-one system (D + wy*g*g^T) delta = wy*r0*g.
		gsum := 0.0
		r0 := y - f0
		for j := 0; j < s.m; j++ {
			w := s.wx.At(i, j)
			if w == 0 {
				grad[j] = 0
				continue
			}
			h := derivStep * math.Max(math.Abs(xcur[j]), 1)
			xcur[j] += h
			grad[j] = (s.model.Evaluate(xcur, beta) - f0) / h
			xcur[j] -= h
			gsum += grad[j] * grad[j] / w
			r0 += grad[j] * delta[j]
		}

		scale := wy * r0 / (1 + wy*gsum)
		diff := 0.0
		for j := 0; j < s.m; j++ {
			w := s.wx.At(i, j)
			if w == 0 {
				next[j] = 0
				continue
			}
			next[j] = scale * grad[j] / w
			if d := math.Abs(next[j] - delta[j]); d > diff {
				diff = d
			}
		}
		copy(delta, next)
		if diff <= 1e-14*(1+math.Abs(y)) {
			break
		}
	}

	for j := 0; j < s.m; j++ {
		xcur[j] = x0[j] + delta[j]
	}

	return y - s.model.Evaluate(xcur, beta)
}

// residuals evaluates the stacked weighted residual vector at beta: n
// response entries followed by n*m adjustment entries. deltas receives the
// per-record orthogonal adjustments.
func (s *solver) residuals(beta []float64, r []float64, deltas *mat.Dense) (sumSquares float64) {
	delta := make([]float64, s.m)
	for i := 0; i < s.n; i++ {
		eps := s.innerSolve(i, beta, delta)
		r[i] = math.Sqrt(s.wy[i]) * eps
		for j := 0; j < s.m; j++ {
			w := s.wx.At(i, j)
			if w > 0 {
				r[s.n+i*s.m+j] = math.Sqrt(w) * delta[j]
			} else {
				r[s.n+i*s.m+j] = 0
			}
			deltas.Set(i, j, delta[j])
		}
	}
	for _, v := range r {
		sumSquares += v * v
	}

	return sumSquares
}

// jacobian fills jac with forward-difference derivatives of the stacked
// residual vector with respect to the free coefficients.
func (s *solver) jacobian(beta, r0 []float64, jac *mat.Dense) {
	nr := s.n * (1 + s.m)
	rk := make([]float64, nr)
	scratch := mat.NewDense(s.n, s.m, nil)
	bk := make([]float64, s.pc)

	for col, k := range s.freeB {
		copy(bk, beta)
		h := derivStep * math.Max(math.Abs(beta[k]), 1)
		bk[k] += h
		s.residuals(bk, rk, scratch)
		for row := 0; row < nr; row++ {
			jac.Set(row, col, (rk[row]-r0[row])/h)
		}
	}
}

func (s *solver) run() *Result {
	nr := s.n * (1 + s.m)
	nf := len(s.freeB)

	beta := append([]float64(nil), s.p.Beta0...)
	r := make([]float64, nr)
	deltas := mat.NewDense(s.n, s.m, nil)
	sum := s.residuals(beta, r, deltas)

	rTrial := make([]float64, nr)
	deltasTrial := mat.NewDense(s.n, s.m, nil)
	jac := mat.NewDense(nr, nf, nil)
	step := make([]float64, nf)

	damping := 1e-3
	stop := StopMaxIterations
	iterations := 0

	for iter := 0; iter < s.maxIter; iter++ {
		iterations = iter + 1
		s.jacobian(beta, r, jac)

		var normal mat.SymDense
		normal.SymOuterK(1, jac.T())
		grad := make([]float64, nf)
		for col := 0; col < nf; col++ {
			g := 0.0
			for row := 0; row < nr; row++ {
				g += jac.At(row, col) * r[row]
			}
			grad[col] = g
		}

		ok := false
		for damping <= maxDamping {
			if s.solveStep(&normal, grad, damping, step) {
				ok = true
				break
			}
			damping *= 10
		}
		if !ok {
			stop = StopNumericalError
			break
		}

		betaTrial := append([]float64(nil), beta...)
		stepNorm, freeNorm := 0.0, 0.0
		for col, k := range s.freeB {
			betaTrial[k] = beta[k] + step[col]
			stepNorm += step[col] * step[col]
			freeNorm += beta[k] * beta[k]
		}
		stepNorm = math.Sqrt(stepNorm)
		freeNorm = math.Sqrt(freeNorm)

		sumTrial := s.residuals(betaTrial, rTrial, deltasTrial)
		if sumTrial <= sum {
			improvement := sum - sumTrial
			copy(beta, betaTrial)
			copy(r, rTrial)
			deltas.Copy(deltasTrial)
			sum = sumTrial
			damping = math.Max(damping/3, 1e-12)

			if improvement <= s.objTol*math.Max(sum, 1e-300) {
				stop = StopConverged
				break
			}
			if stepNorm <= s.stepTol*(freeNorm+s.stepTol) {
				stop = StopParamConverged
				break
			}
			continue
		}

		// Rejected step: a negligible proposed step at growing damping
		// means the iterate is already at the minimum.
		if stepNorm <= s.stepTol*(freeNorm+s.stepTol) {
			stop = StopParamConverged
			break
		}
		damping *= 10
		if damping > maxDamping {
			stop = StopNumericalError
			break
		}
	}

	return s.finish(beta, r, deltas, sum, iterations, stop)
}

// solveStep solves (A + damping*diag(A)) step = -grad. Reports false when
// the damped system is not positive definite.
func (s *solver) solveStep(normal *mat.SymDense, grad []float64, damping float64, step []float64) bool {
	nf := len(grad)
	damped := mat.NewSymDense(nf, nil)
	for i := 0; i < nf; i++ {
		for j := i; j < nf; j++ {
			damped.SetSym(i, j, normal.At(i, j))
		}
		d := normal.At(i, i)
		if d <= 0 {
			d = 1e-12
		}
		damped.SetSym(i, i, normal.At(i, i)+damping*d)
	}

	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return false
	}
	rhs := mat.NewVecDense(nf, nil)
	for i, g := range grad {
		rhs.SetVec(i, -g)
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return false
	}
	for i := 0; i < nf; i++ {
		step[i] = sol.AtVec(i)
	}

	return true
}

// finish assembles the result: covariance over the free coefficients,
// fitted variable values, and residuals.
func (s *solver) finish(beta, r []float64, deltas *mat.Dense, sum float64, iterations int, stop StopReason) *Result {
	nr := s.n * (1 + s.m)
	nf := len(s.freeB)

	res := &Result{
		Beta:       beta,
		XPlus:      mat.NewDense(s.n, s.m, nil),
		YHat:       make([]float64, s.n),
		Residuals:  make([]float64, s.n),
		SumSquares: sum,
		Iterations: iterations,
		Stop:       stop,
	}

	res.XPlus.Add(s.p.X, deltas)
	row := make([]float64, s.m)
	for i := 0; i < s.n; i++ {
		mat.Row(row, i, res.XPlus)
		res.YHat[i] = s.model.Evaluate(row, beta)
		res.Residuals[i] = s.p.Y[i] - res.YHat[i]
	}

	// Covariance of the free coefficients: s^2 * (J^T J)^-1, scattered
	// into the full coefficient grid with zeros for fixed entries.
	jac := mat.NewDense(nr, nf, nil)
	s.jacobian(beta, r, jac)
	var normal mat.SymDense
	normal.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if !chol.Factorize(&normal) {
		return res
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return res
	}

	dof := s.n - nf
	if dof < 1 {
		dof = 1
	}
	sigma2 := sum / float64(dof)

	cov := mat.NewSymDense(s.pc, nil)
	for a, ka := range s.freeB {
		for b := a; b < nf; b++ {
			cov.SetSym(ka, s.freeB[b], sigma2*inv.At(a, b))
		}
	}
	res.Cov = cov

	return res
}
