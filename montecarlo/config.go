// Package montecarlo orchestrates the Monte Carlo estimation of coefficient
// uncertainty: a reference fit on the best-estimate data, then N independent
// trials that draw correlated synthetic errors, perturb the data around the
// reference fit, and refit. The trial coefficient sample reduces to an
// empirical covariance for comparison with the solver-reported covariance.
package montecarlo

import (
	"fmt"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/internal/options"
	"github.com/harmosat/harmc/matchup"
	"github.com/harmosat/harmc/measeq"
	"github.com/harmosat/harmc/uncertainty"
)

// DefaultTrials is the trial count used when none is configured.
const DefaultTrials = 100

// Config collects everything one Monte Carlo run needs. Build it through
// NewRunner's options; the zero value is not usable directly.
type Config struct {
	// Dataset is the matchup dataset under harmonisation.
	Dataset *matchup.Dataset
	// Model is the measurement equation being calibrated.
	Model measeq.Model
	// Decomposition is the dataset's uncertainty decomposition. Derived
	// from the dataset when nil.
	Decomposition *uncertainty.Decomposition
	// Trials is the number of Monte Carlo trials.
	Trials int
	// Seed drives the synthetic error stream. Zero selects a wall-clock
	// seed; the resolved value is reported in the run summary.
	Seed int64
	// Beta0 is the initial coefficient vector for the reference fit.
	// Defaults to all zeros.
	Beta0 []float64
	// FixBeta marks coefficients held fixed through every fit.
	FixBeta []bool
	// FixX marks variable columns held fixed: no orthogonal adjustment in
	// the fits and no injected synthetic error in the trials.
	FixX []bool
	// ConvergedOnly restricts the covariance aggregation to trials whose
	// refit converged. Non-converged trials stay in the trial list either
	// way.
	ConvergedOnly bool
}

// Option configures a Runner.
type Option = options.Option[*Config]

// WithTrials sets the number of Monte Carlo trials.
func WithTrials(n int) Option {
	return options.New(func(cfg *Config) error {
		if n <= 0 {
			return fmt.Errorf("trial count must be positive, got %d", n)
		}
		cfg.Trials = n

		return nil
	})
}

// WithSeed fixes the synthetic error stream for reproducible runs.
func WithSeed(seed int64) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Seed = seed
	})
}

// WithInitialCoefficients sets the reference fit's starting coefficients.
func WithInitialCoefficients(beta0 []float64) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Beta0 = append([]float64(nil), beta0...)
	})
}

// WithFixedCoefficients marks coefficients held fixed (true = fixed).
func WithFixedCoefficients(fixed []bool) Option {
	return options.NoError(func(cfg *Config) {
		cfg.FixBeta = append([]bool(nil), fixed...)
	})
}

// WithFixedVariables marks variable columns held fixed (true = fixed).
func WithFixedVariables(fixed []bool) Option {
	return options.NoError(func(cfg *Config) {
		cfg.FixX = append([]bool(nil), fixed...)
	})
}

// WithDecomposition supplies a pre-computed uncertainty decomposition,
// avoiding a second derivation when the caller already holds one.
func WithDecomposition(dec *uncertainty.Decomposition) Option {
	return options.NoError(func(cfg *Config) {
		cfg.Decomposition = dec
	})
}

// WithConvergedOnly restricts covariance aggregation to converged trials.
func WithConvergedOnly() Option {
	return options.NoError(func(cfg *Config) {
		cfg.ConvergedOnly = true
	})
}

// validate checks the configuration against the dataset and model before
// any fit runs; violations are fatal configuration errors.
func (cfg *Config) validate() error {
	if cfg.Dataset == nil {
		return errs.ErrEmptyDataset
	}
	if cfg.Model == nil {
		return fmt.Errorf("%w: nil model", errs.ErrModelDimension)
	}
	if cfg.Model.VariableCount() != matchup.NumVariables {
		return fmt.Errorf("%w: model wants %d variables, dataset has %d",
			errs.ErrModelDimension, cfg.Model.VariableCount(), matchup.NumVariables)
	}
	pc := cfg.Model.CoefficientCount()
	if cfg.Beta0 != nil && len(cfg.Beta0) != pc {
		return fmt.Errorf("%w: %d initial coefficients, model wants %d",
			errs.ErrModelDimension, len(cfg.Beta0), pc)
	}
	if cfg.FixBeta != nil && len(cfg.FixBeta) != pc {
		return fmt.Errorf("%w: FixBeta has %d entries, want %d",
			errs.ErrMaskLength, len(cfg.FixBeta), pc)
	}
	if cfg.FixX != nil && len(cfg.FixX) != matchup.NumVariables {
		return fmt.Errorf("%w: FixX has %d entries, want %d",
			errs.ErrMaskLength, len(cfg.FixX), matchup.NumVariables)
	}

	return nil
}
