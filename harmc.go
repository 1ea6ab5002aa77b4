// Package harmc estimates the uncertainty of fitted sensor-calibration
// coefficients by combining a weighted orthogonal-distance regression with a
// Monte Carlo procedure that repeatedly perturbs the matchup data with
// correlated synthetic errors and refits.
//
// Given a matchup dataset with a declared random/systematic/scanline
// uncertainty structure, a run produces the best-fit calibration
// coefficients with their solver-evaluated covariance, and an independent
// empirical covariance estimated from the spread of the Monte Carlo refit
// coefficients.
//
// # Basic Usage
//
//	ds := loadDataset() // a populated *matchup.Dataset
//	summary, err := harmc.Run(ds, measeq.NewAVHRR(),
//	    montecarlo.WithTrials(500),
//	    montecarlo.WithSeed(42),
//	    montecarlo.WithInitialCoefficients(beta0),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(summary.BestFit.Beta) // reference coefficients
//	fmt.Println(summary.Cov)          // empirical MC covariance
//
// Persisting the trial table for later re-analysis:
//
//	err = harmc.SaveTrials("n15_trials.csv", summary, ds,
//	    results.WithCompression(compress.TypeZstd))
//
// # Package Structure
//
// This package provides convenience wrappers around the component packages:
// matchup (data model), uncertainty (decomposition), errgen (correlated
// error draws), odrfit (constrained weighted regression), montecarlo
// (orchestration), and results (trial-table persistence). Use those
// directly for fine-grained control.
package harmc

import (
	"github.com/harmosat/harmc/internal/hash"
	"github.com/harmosat/harmc/matchup"
	"github.com/harmosat/harmc/measeq"
	"github.com/harmosat/harmc/montecarlo"
	"github.com/harmosat/harmc/results"
)

// Run executes a full Monte Carlo coefficient-uncertainty run on the
// dataset: uncertainty decomposition, best-estimate reference fit, N
// perturb-and-refit trials, and aggregation of the trial sample.
func Run(ds *matchup.Dataset, model measeq.Model, opts ...montecarlo.Option) (*montecarlo.Summary, error) {
	runner, err := montecarlo.NewRunner(ds, model, opts...)
	if err != nil {
		return nil, err
	}

	return runner.Run()
}

// Fingerprint computes the run-configuration fingerprint recorded in
// persisted trial tables: a hash over the dataset's values, its scanline
// layout, and the run seed.
func Fingerprint(ds *matchup.Dataset, seed int64) uint64 {
	f := hash.NewFingerprint()
	f.AddInt(seed)
	f.AddInt(int64(ds.NumRecords()))
	f.AddInt(int64(ds.WindowLength))
	for _, idx := range ds.Scanline {
		f.AddInt(idx)
	}
	for _, v := range matchup.Variables() {
		f.AddFloats(ds.Column(v))
		f.AddFloats(ds.RandomColumn(v))
	}
	f.AddFloats(ds.RefRadiance)
	f.AddFloats(ds.K)

	return f.Sum64()
}

// TrialTable converts a run summary into its persistable table form.
func TrialTable(summary *montecarlo.Summary, ds *matchup.Dataset) *results.Table {
	pc := 0
	if len(summary.Trials) > 0 {
		pc = len(summary.Trials[0].Beta)
	} else if summary.BestFit != nil {
		pc = len(summary.BestFit.Beta)
	}

	t := &results.Table{
		Coefficients: pc,
		Trials:       len(summary.Trials),
		Seed:         summary.Seed,
		WindowLength: ds.WindowLength,
		Fingerprint:  Fingerprint(ds, summary.Seed),
		Rows:         make([]results.Row, len(summary.Trials)),
	}
	for i, trial := range summary.Trials {
		t.Rows[i] = results.Row{
			Beta:   trial.Beta,
			Status: int(trial.Stop),
		}
	}

	return t
}

// SaveTrials writes the run's trial table to path so covariance or other
// statistics can be recomputed later without rerunning the fits.
func SaveTrials(path string, summary *montecarlo.Summary, ds *matchup.Dataset, opts ...results.Option) error {
	return results.WriteFile(path, TrialTable(summary, ds), opts...)
}
