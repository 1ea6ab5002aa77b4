package montecarlo

import (
	"fmt"
	"iter"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/errgen"
	"github.com/harmosat/harmc/internal/options"
	"github.com/harmosat/harmc/matchup"
	"github.com/harmosat/harmc/measeq"
	"github.com/harmosat/harmc/odrfit"
	"github.com/harmosat/harmc/uncertainty"
)

// Trial is one Monte Carlo trial's recorded outcome. Trials are never
// discarded: a non-converged refit is recorded with its stop reason so the
// aggregation step can decide what to do with it.
type Trial struct {
	// Index is the zero-based trial number.
	Index int
	// Beta is the refitted coefficient vector.
	Beta []float64
	// Stop is the refit's termination reason.
	Stop odrfit.StopReason
}

// Runner executes one Monte Carlo run: a reference fit followed by N
// independent perturb-and-refit trials. Trials run strictly sequentially;
// a Runner is not safe for concurrent use.
type Runner struct {
	cfg  *Config
	dec  *uncertainty.Decomposition
	seed int64

	xSigma *mat.Dense
	ySigma []float64

	best *odrfit.Result
}

// NewRunner validates the configuration and prepares a run. All fatal
// configuration errors surface here or in BestFit, before any trial
// executes.
func NewRunner(ds *matchup.Dataset, model measeq.Model, opts ...Option) (*Runner, error) {
	cfg := &Config{
		Dataset: ds,
		Model:   model,
		Trials:  DefaultTrials,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dec := cfg.Decomposition
	if dec == nil {
		var err error
		dec, err = uncertainty.Decompose(ds)
		if err != nil {
			return nil, err
		}
	} else if err := dec.CheckShapes(ds.NumRecords()); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	r := &Runner{
		cfg:  cfg,
		dec:  dec,
		seed: seed,
	}
	r.buildWeights()

	return r, nil
}

// buildWeights derives the per-element sigmas entering the fit weights:
// random and systematic components combined for every variable and for the
// response, reused unchanged by every trial refit.
func (r *Runner) buildWeights() {
	n := r.dec.Records
	r.xSigma = mat.NewDense(n, matchup.NumVariables, nil)
	for _, v := range matchup.Variables() {
		sig := r.dec.TotalSigma(v, true)
		for i := 0; i < n; i++ {
			r.xSigma.Set(i, int(v), sig[i])
		}
	}
	r.ySigma = r.dec.ResponseSigma(true)
}

// Seed returns the resolved random seed driving the trial error stream.
func (r *Runner) Seed() int64 {
	return r.seed
}

// Decomposition returns the uncertainty decomposition in use.
func (r *Runner) Decomposition() *uncertainty.Decomposition {
	return r.dec
}

// BestFit performs (once) and returns the reference fit on the un-perturbed
// best-estimate data.
func (r *Runner) BestFit() (*odrfit.Result, error) {
	if r.best != nil {
		return r.best, nil
	}

	beta0 := r.cfg.Beta0
	if beta0 == nil {
		beta0 = make([]float64, r.cfg.Model.CoefficientCount())
	}

	prob := &odrfit.Problem{
		Model:   r.cfg.Model,
		X:       r.cfg.Dataset.X(),
		Y:       r.cfg.Dataset.Response(),
		XSigma:  r.xSigma,
		YSigma:  r.ySigma,
		Beta0:   beta0,
		FixBeta: r.cfg.FixBeta,
		FixX:    r.cfg.FixX,
	}
	best, err := prob.Fit()
	if err != nil {
		return nil, fmt.Errorf("best-estimate fit: %w", err)
	}
	r.best = best

	return best, nil
}

// Perturb builds one trial's synthetic dataset: the best-estimate variable
// and response values plus the trial's error draw. Variable columns fixed
// via fixX receive no injected error; their best-estimate values stand in
// directly.
func Perturb(best *odrfit.Result, draw *errgen.Draw, fixX []bool) (*mat.Dense, []float64) {
	n, m := best.XPlus.Dims()

	x := mat.NewDense(n, m, nil)
	x.Copy(best.XPlus)
	for j := 0; j < m; j++ {
		if fixX != nil && fixX[j] {
			continue
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)+draw.X.At(i, j))
		}
	}

	errY := draw.Response()
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = best.YHat[i] + errY[i]
	}

	return x, y
}

// Trials returns the run's lazy trial sequence. The sequence is finite
// (Config.Trials elements), restartable, and deterministic for a fixed
// seed: every restart replays the same error stream from the beginning.
//
// Each iteration draws one error matrix, perturbs the best-estimate data,
// and refits in trial mode (same weights and fix-masks as the reference
// fit, started from the reference coefficients). The reference fit runs on
// first use if it has not run yet.
func (r *Runner) Trials() (iter.Seq[Trial], error) {
	best, err := r.BestFit()
	if err != nil {
		return nil, err
	}

	seq := func(yield func(Trial) bool) {
		gen, genErr := errgen.New(r.dec, errgen.WithSeed(r.seed))
		if genErr != nil {
			return
		}
		for i := 0; i < r.cfg.Trials; i++ {
			x, y := Perturb(best, gen.Draw(), r.cfg.FixX)

			prob := &odrfit.Problem{
				Model:   r.cfg.Model,
				X:       x,
				Y:       y,
				XSigma:  r.xSigma,
				YSigma:  r.ySigma,
				Beta0:   best.Beta,
				FixBeta: r.cfg.FixBeta,
				FixX:    r.cfg.FixX,
			}
			res, fitErr := prob.Fit()

			trial := Trial{Index: i}
			if fitErr != nil {
				// Configuration was validated by the reference fit; a
				// failure here is numerical. Record it, keep going.
				trial.Beta = append([]float64(nil), best.Beta...)
				trial.Stop = odrfit.StopNumericalError
			} else {
				trial.Beta = res.Beta
				trial.Stop = res.Stop
			}
			if !yield(trial) {
				return
			}
		}
	}

	return seq, nil
}

// Run executes the full Monte Carlo procedure: reference fit, all trials in
// sequence, then aggregation of the trial coefficient sample.
func (r *Runner) Run() (*Summary, error) {
	best, err := r.BestFit()
	if err != nil {
		return nil, err
	}
	seq, err := r.Trials()
	if err != nil {
		return nil, err
	}

	trials := make([]Trial, 0, r.cfg.Trials)
	for trial := range seq {
		trials = append(trials, trial)
	}

	return summarize(best, trials, r.cfg.Model.CoefficientCount(), r.seed, r.cfg.ConvergedOnly)
}
