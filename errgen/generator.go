// Package errgen draws synthetic error matrices consistent with a dataset's
// uncertainty decomposition, one draw per Monte Carlo trial.
//
// Each trial's draw combines three additive contributions per variable:
// one standard-normal draw per scanline group for scanline-correlated
// variables (broadcast to every member record), one draw per record for
// independent variables, and one draw per trial for systematic components
// (broadcast to all records). A component with magnitude zero contributes
// exactly zero.
package errgen

import (
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/internal/options"
	"github.com/harmosat/harmc/matchup"
	"github.com/harmosat/harmc/uncertainty"
)

// Draw is one trial's joint error draw: one row per matchup record, one
// column per harmonisation variable, plus the two response channels.
type Draw struct {
	// X holds the per-record error for each harmonisation variable, in
	// canonical column order.
	X *mat.Dense
	// Ref and K hold the per-record errors of the reference radiance and
	// adjustment channels.
	Ref []float64
	K   []float64
}

// Response returns the combined per-record response error. The regression
// response is the sum of the reference radiance and the adjustment value,
// so its error is the sum of both channels' errors.
func (d *Draw) Response() []float64 {
	out := make([]float64, len(d.Ref))
	for i := range out {
		out[i] = d.Ref[i] + d.K[i]
	}

	return out
}

// Generator draws trial error matrices from an uncertainty decomposition.
// It never mutates the decomposition. A Generator is not safe for
// concurrent use; give each worker its own.
type Generator struct {
	dec *uncertainty.Decomposition
	rng *rand.Rand
}

type config struct {
	seed    int64
	seedSet bool
}

// Option configures a Generator.
type Option = options.Option[*config]

// WithSeed makes the generator's draw stream reproducible. Without it the
// generator seeds itself from the wall clock.
func WithSeed(seed int64) Option {
	return options.NoError(func(cfg *config) {
		cfg.seed = seed
		cfg.seedSet = true
	})
}

// New creates a Generator over the given decomposition.
func New(dec *uncertainty.Decomposition, opts ...Option) (*Generator, error) {
	cfg := &config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if !cfg.seedSet {
		cfg.seed = time.Now().UnixNano()
	}

	return &Generator{
		dec: dec,
		rng: rand.New(rand.NewSource(cfg.seed)),
	}, nil
}

// Reseed resets the draw stream. Two generators over the same decomposition
// reseeded with the same value produce identical draw sequences.
func (g *Generator) Reseed(seed int64) {
	g.rng = rand.New(rand.NewSource(seed))
}

// Draw produces one trial's error draw.
//
// Draw order is fixed (systematic, then scanline, then record-level, in
// canonical variable order, then the response channels) so a seeded stream
// is reproducible across runs.
func (g *Generator) Draw() *Draw {
	dec := g.dec
	n := dec.Records

	draw := &Draw{
		X:   mat.NewDense(n, matchup.NumVariables, nil),
		Ref: make([]float64, n),
		K:   make([]float64, n),
	}

	// Systematic shifts: one draw per trial per channel, broadcast to all
	// records.
	var sysShift [matchup.NumVariables]float64
	for _, v := range matchup.Variables() {
		sysShift[v] = g.rng.NormFloat64() * dec.Systematic[v]
	}
	refShift := g.rng.NormFloat64() * dec.RefSystematic
	kShift := g.rng.NormFloat64() * dec.KSystematic

	// Scanline-correlated components: one draw per scanline group,
	// broadcast to the group's records.
	for _, v := range matchup.Variables() {
		scan := dec.Scanline[v]
		if scan == nil {
			continue
		}
		for gi, sigma := range scan {
			e := g.rng.NormFloat64() * sigma
			for _, r := range dec.Groups.Groups[gi].Records {
				draw.X.Set(r, int(v), e)
			}
		}
	}

	// Record-level independent components.
	for _, v := range matchup.Variables() {
		indep := dec.Independent[v]
		if indep == nil {
			continue
		}
		for i, sigma := range indep {
			draw.X.Set(i, int(v), g.rng.NormFloat64()*sigma)
		}
	}

	// Add the systematic shift on top of the per-record components.
	for _, v := range matchup.Variables() {
		if sysShift[v] == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			draw.X.Set(i, int(v), draw.X.At(i, int(v))+sysShift[v])
		}
	}

	// Response channels: record-level random plus systematic shift.
	for i := 0; i < n; i++ {
		draw.Ref[i] = g.rng.NormFloat64()*dec.RefSigma[i] + refShift
		draw.K[i] = g.rng.NormFloat64()*dec.KSigma[i] + kShift
	}

	return draw
}
