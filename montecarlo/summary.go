package montecarlo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/odrfit"
)

// Summary is the outcome of a full Monte Carlo run: the reference fit, the
// complete trial record, and the empirical statistics of the trial
// coefficient sample.
type Summary struct {
	// BestFit is the reference fit on the un-perturbed data.
	BestFit *odrfit.Result
	// Trials holds every trial in execution order, converged or not.
	Trials []Trial
	// Mean is the per-coefficient mean over the aggregated trials.
	Mean []float64
	// Cov is the empirical coefficient covariance over the aggregated
	// trials, the Monte Carlo counterpart of BestFit.Cov.
	Cov *mat.SymDense
	// Converged counts trials whose refit converged; Failed counts the
	// rest. Converged+Failed == len(Trials).
	Converged int
	Failed    int
	// Aggregated is the number of trials entering Mean and Cov (all trials,
	// or only the converged ones under WithConvergedOnly).
	Aggregated int
	// Seed is the resolved random seed that drove the error stream.
	Seed int64
}

// summarize reduces the trial sample to its empirical mean and covariance.
func summarize(best *odrfit.Result, trials []Trial, pc int, seed int64, convergedOnly bool) (*Summary, error) {
	s := &Summary{
		BestFit: best,
		Trials:  trials,
		Seed:    seed,
	}
	for _, t := range trials {
		if t.Stop.Converged() {
			s.Converged++
		} else {
			s.Failed++
		}
	}

	kept := make([]Trial, 0, len(trials))
	for _, t := range trials {
		if convergedOnly && !t.Stop.Converged() {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %d trials ran, none aggregated", errs.ErrNoTrials, len(trials))
	}
	s.Aggregated = len(kept)

	samples := mat.NewDense(len(kept), pc, nil)
	for i, t := range kept {
		samples.SetRow(i, t.Beta)
	}

	s.Mean = make([]float64, pc)
	col := make([]float64, len(kept))
	for j := 0; j < pc; j++ {
		mat.Col(col, j, samples)
		s.Mean[j] = stat.Mean(col, nil)
	}

	cov := mat.NewSymDense(pc, nil)
	stat.CovarianceMatrix(cov, samples, nil)
	s.Cov = cov

	return s, nil
}

// RelativeCovDiff compares the empirical Monte Carlo covariance with the
// solver-reported covariance, returning the largest relative difference over
// the diagonal entries that are nonzero in both. It is the convergence
// measure for growing trial counts.
func (s *Summary) RelativeCovDiff() float64 {
	if s.Cov == nil || s.BestFit == nil || s.BestFit.Cov == nil {
		return math.NaN()
	}
	pc, _ := s.Cov.Dims()
	worst := 0.0
	for k := 0; k < pc; k++ {
		ref := s.BestFit.Cov.At(k, k)
		got := s.Cov.At(k, k)
		if ref == 0 || got == 0 {
			continue
		}
		if d := math.Abs(got-ref) / math.Abs(ref); d > worst {
			worst = d
		}
	}

	return worst
}
