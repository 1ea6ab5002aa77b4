// Package uncertainty decomposes a matchup dataset's declared uncertainty
// structure into the components consumed by correlated error generation and
// by regression weighting.
//
// Every harmonisation variable's uncertainty splits into up to three
// components:
//
//   - independent: one random error per matchup record;
//   - scanline-correlated: one random error per scanline group, shared by
//     all records of the scanline (space and internal-target counts, whose
//     values derive from rolling averages over scanlines);
//   - systematic: a constant shift fully correlated across the whole
//     dataset, drawn once per Monte Carlo trial.
//
// The decomposition is derived once per run and never mutated afterwards.
package uncertainty

import (
	"fmt"
	"math"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/internal/options"
	"github.com/harmosat/harmc/matchup"
)

// DefaultSystematicFloor is the placeholder magnitude substituted for a
// declared-zero systematic uncertainty on variables that require a nonzero
// value for numerical stability of the weighted fit.
const DefaultSystematicFloor = 1e-6

// Decomposition is the component view of a dataset's uncertainty structure,
// consumable directly by the error generator and the regression driver.
type Decomposition struct {
	// Records is the number of matchup records.
	Records int
	// Groups is the scanline partition the scanline components refer to.
	Groups *matchup.ScanlineGroups

	// Independent[v] holds one sigma per record for record-level variables;
	// it is nil for scanline-correlated variables.
	Independent [matchup.NumVariables][]float64
	// Scanline[v] holds one sigma per scanline group for scanline-correlated
	// variables; it is nil for record-level variables.
	Scanline [matchup.NumVariables][]float64
	// Systematic[v] is the whole-dataset constant-shift magnitude.
	Systematic [matchup.NumVariables]float64

	// RefSigma and KSigma are the per-record random sigmas of the two
	// response channels; their sum forms the regression response.
	RefSigma []float64
	KSigma   []float64
	// RefSystematic and KSystematic are the response channels' systematic
	// magnitudes.
	RefSystematic float64
	KSystematic   float64

	// Substitutions records every zero-floor correction that was applied,
	// so the placeholder policy is visible rather than silent.
	Substitutions []Substitution
}

// Substitution documents one zero-floor correction.
type Substitution struct {
	// Variable is the harmonisation variable whose systematic magnitude was
	// corrected.
	Variable matchup.Variable
	// Applied is the placeholder magnitude that replaced the declared zero.
	Applied float64
}

// String summarises the substitution for run reports.
func (s Substitution) String() string {
	return fmt.Sprintf("systematic(%s): 0 -> %g", s.Variable, s.Applied)
}

type config struct {
	floor float64
}

// Option configures Decompose.
type Option = options.Option[*config]

// WithSystematicFloor overrides the placeholder magnitude used for
// declared-zero systematic uncertainties. The value must be positive.
func WithSystematicFloor(floor float64) Option {
	return options.New(func(cfg *config) error {
		if floor <= 0 {
			return fmt.Errorf("systematic floor must be positive, got %g", floor)
		}
		cfg.floor = floor

		return nil
	})
}

// floorRequired reports whether the variable's systematic component must be
// nonzero. The internal-target radiance and orbit temperature carry genuine
// instrument biases; a declared zero there reflects a missing estimate, and
// leaving it at zero degenerates the combined weights.
func floorRequired(v matchup.Variable) bool {
	return v == matchup.ICTRadiance || v == matchup.OrbitTemp
}

// Decompose validates the dataset and derives its uncertainty decomposition.
//
// Classification rules:
//   - space-count and internal-target-count random uncertainty is
//     scanline-level: one sigma per scanline group;
//   - earth-count, internal-target-radiance, and orbit-temperature random
//     uncertainty is record-level independent;
//   - systematic magnitudes are whole-dataset scalars; a declared zero on
//     the internal-target radiance or orbit temperature is replaced with the
//     floor placeholder and recorded in Substitutions.
//
// The returned decomposition copies every sigma it keeps; later mutation of
// the dataset does not affect it.
func Decompose(ds *matchup.Dataset, opts ...Option) (*Decomposition, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("uncertainty decomposition: %w", err)
	}
	cfg := &config{floor: DefaultSystematicFloor}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	n := ds.NumRecords()
	groups := ds.ScanlineGroups()

	d := &Decomposition{
		Records:       n,
		Groups:        groups,
		RefSigma:      append([]float64(nil), ds.Random.RefRadiance...),
		KSigma:        append([]float64(nil), ds.Random.K...),
		RefSystematic: ds.Systematic.RefRadiance,
		KSystematic:   ds.Systematic.K,
	}

	for _, v := range matchup.Variables() {
		if v.ScanlineCorrelated() {
			sig := make([]float64, groups.NumGroups())
			for gi, g := range groups.Groups {
				if v == matchup.SpaceCount {
					sig[gi] = g.SpaceCountSigma
				} else {
					sig[gi] = g.ICTCountSigma
				}
			}
			d.Scanline[v] = sig
		} else {
			d.Independent[v] = append([]float64(nil), ds.RandomColumn(v)...)
		}

		sys := ds.SystematicFor(v)
		if sys == 0 && floorRequired(v) {
			sys = cfg.floor
			d.Substitutions = append(d.Substitutions, Substitution{Variable: v, Applied: sys})
		}
		d.Systematic[v] = sys
	}

	return d, nil
}

// RecordSigma returns the per-record random sigma for a variable, with
// scanline-level sigmas broadcast to every member record of their group.
func (d *Decomposition) RecordSigma(v matchup.Variable) []float64 {
	sig := make([]float64, d.Records)
	if scan := d.Scanline[v]; scan != nil {
		for i := 0; i < d.Records; i++ {
			sig[i] = scan[d.Groups.GroupOf(i)]
		}

		return sig
	}
	copy(sig, d.Independent[v])

	return sig
}

// TotalSigma returns the per-record total sigma for a variable: the random
// component, optionally combined in quadrature with the systematic
// magnitude. This is the input to inverse-variance weighting.
func (d *Decomposition) TotalSigma(v matchup.Variable, includeSystematic bool) []float64 {
	sig := d.RecordSigma(v)
	if !includeSystematic {
		return sig
	}
	sys := d.Systematic[v]
	for i, s := range sig {
		sig[i] = math.Hypot(s, sys)
	}

	return sig
}

// ResponseSigma returns the per-record sigma of the combined response
// (reference radiance plus adjustment), optionally including the systematic
// magnitudes of both channels.
func (d *Decomposition) ResponseSigma(includeSystematic bool) []float64 {
	sig := make([]float64, d.Records)
	for i := 0; i < d.Records; i++ {
		variance := d.RefSigma[i]*d.RefSigma[i] + d.KSigma[i]*d.KSigma[i]
		if includeSystematic {
			variance += d.RefSystematic*d.RefSystematic + d.KSystematic*d.KSystematic
		}
		sig[i] = math.Sqrt(variance)
	}

	return sig
}

// CheckShapes verifies that the decomposition still matches a dataset of n
// records; it guards against mixing decompositions across datasets.
func (d *Decomposition) CheckShapes(n int) error {
	if d.Records != n {
		return fmt.Errorf("%w: decomposition built for %d records, dataset has %d",
			errs.ErrShapeMismatch, d.Records, n)
	}

	return nil
}
