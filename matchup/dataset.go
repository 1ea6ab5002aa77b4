package matchup

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/harmosat/harmc/errs"
)

// RandomUncertainty holds per-record random (independent) uncertainty for
// every harmonisation variable and for the two response channels. For the
// scanline-correlated variables the per-record values are the scanline-level
// sigmas, repeated for every record of the scanline; Validate enforces that
// all members of a scanline declare identical values.
type RandomUncertainty struct {
	SpaceCount  []float64
	ICTCount    []float64
	EarthCount  []float64
	ICTRadiance []float64
	OrbitTemp   []float64

	RefRadiance []float64
	K           []float64
}

// SystematicUncertainty holds the constant-shift uncertainty magnitudes.
// A systematic component is fully correlated across the whole dataset: one
// error draw per trial, applied identically to every record.
type SystematicUncertainty struct {
	SpaceCount  float64
	ICTCount    float64
	EarthCount  float64
	ICTRadiance float64
	OrbitTemp   float64

	RefRadiance float64
	K           float64
}

// Dataset is one sensor pair's matchup data: per-record harmonisation
// variables, the reference radiance and adjustment channels forming the
// regression response, the scanline index, and the declared uncertainty
// structure. All columns are aligned record-for-record.
type Dataset struct {
	// Scanline holds one acquisition scanline index per record. Records
	// sharing an index form a scanline group.
	Scanline []int64

	SpaceCount  []float64
	ICTCount    []float64
	EarthCount  []float64
	ICTRadiance []float64
	OrbitTemp   []float64

	// RefRadiance is the reference sensor radiance; K is the evaluated
	// sensor-to-sensor adjustment. The fit response is their sum.
	RefRadiance []float64
	K           []float64

	Random     RandomUncertainty
	Systematic SystematicUncertainty

	// WindowLength is the number of scanlines in the rolling-average window
	// used to derive the calibration counts. Carried as run metadata.
	WindowLength int
}

// NewDataset allocates a dataset for n matchup records with all columns
// zeroed.
func NewDataset(n int) *Dataset {
	return &Dataset{
		Scanline:    make([]int64, n),
		SpaceCount:  make([]float64, n),
		ICTCount:    make([]float64, n),
		EarthCount:  make([]float64, n),
		ICTRadiance: make([]float64, n),
		OrbitTemp:   make([]float64, n),
		RefRadiance: make([]float64, n),
		K:           make([]float64, n),
		Random: RandomUncertainty{
			SpaceCount:  make([]float64, n),
			ICTCount:    make([]float64, n),
			EarthCount:  make([]float64, n),
			ICTRadiance: make([]float64, n),
			OrbitTemp:   make([]float64, n),
			RefRadiance: make([]float64, n),
			K:           make([]float64, n),
		},
	}
}

// NumRecords returns the number of matchup records.
func (d *Dataset) NumRecords() int {
	return len(d.Scanline)
}

// Column returns the value column for the given variable.
func (d *Dataset) Column(v Variable) []float64 {
	switch v {
	case SpaceCount:
		return d.SpaceCount
	case ICTCount:
		return d.ICTCount
	case EarthCount:
		return d.EarthCount
	case ICTRadiance:
		return d.ICTRadiance
	case OrbitTemp:
		return d.OrbitTemp
	default:
		return nil
	}
}

// RandomColumn returns the per-record random uncertainty column for the
// given variable.
func (d *Dataset) RandomColumn(v Variable) []float64 {
	switch v {
	case SpaceCount:
		return d.Random.SpaceCount
	case ICTCount:
		return d.Random.ICTCount
	case EarthCount:
		return d.Random.EarthCount
	case ICTRadiance:
		return d.Random.ICTRadiance
	case OrbitTemp:
		return d.Random.OrbitTemp
	default:
		return nil
	}
}

// SystematicFor returns the systematic magnitude for the given variable.
func (d *Dataset) SystematicFor(v Variable) float64 {
	switch v {
	case SpaceCount:
		return d.Systematic.SpaceCount
	case ICTCount:
		return d.Systematic.ICTCount
	case EarthCount:
		return d.Systematic.EarthCount
	case ICTRadiance:
		return d.Systematic.ICTRadiance
	case OrbitTemp:
		return d.Systematic.OrbitTemp
	default:
		return 0
	}
}

// X builds the n-by-NumVariables explanatory matrix in canonical column
// order. The matrix copies the column data; mutating it does not touch the
// dataset.
func (d *Dataset) X() *mat.Dense {
	n := d.NumRecords()
	x := mat.NewDense(n, NumVariables, nil)
	for j, v := range Variables() {
		col := d.Column(v)
		for i := 0; i < n; i++ {
			x.Set(i, j, col[i])
		}
	}

	return x
}

// Response builds the regression response vector: reference radiance plus
// the adjustment value, per record.
func (d *Dataset) Response() []float64 {
	n := d.NumRecords()
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = d.RefRadiance[i] + d.K[i]
	}

	return y
}

// Validate checks the dataset's structural invariants: aligned column
// lengths, non-negative uncertainty magnitudes, and identical scanline-level
// uncertainties within every scanline group. Any violation is a
// configuration error that must abort a run before trials execute.
func (d *Dataset) Validate() error {
	n := d.NumRecords()
	if n == 0 {
		return errs.ErrEmptyDataset
	}

	cols := []struct {
		name string
		data []float64
	}{
		{"space_count", d.SpaceCount},
		{"ict_count", d.ICTCount},
		{"earth_count", d.EarthCount},
		{"ict_radiance", d.ICTRadiance},
		{"orbit_temp", d.OrbitTemp},
		{"ref_radiance", d.RefRadiance},
		{"k", d.K},
		{"random.space_count", d.Random.SpaceCount},
		{"random.ict_count", d.Random.ICTCount},
		{"random.earth_count", d.Random.EarthCount},
		{"random.ict_radiance", d.Random.ICTRadiance},
		{"random.orbit_temp", d.Random.OrbitTemp},
		{"random.ref_radiance", d.Random.RefRadiance},
		{"random.k", d.Random.K},
	}
	for _, c := range cols {
		if len(c.data) != n {
			return fmt.Errorf("%w: column %s has %d values, want %d",
				errs.ErrShapeMismatch, c.name, len(c.data), n)
		}
	}

	for _, c := range cols[7:] {
		for i, u := range c.data {
			if u < 0 {
				return fmt.Errorf("%w: %s[%d] = %g", errs.ErrNegativeUncertainty, c.name, i, u)
			}
		}
	}
	sys := []struct {
		name string
		u    float64
	}{
		{"systematic.space_count", d.Systematic.SpaceCount},
		{"systematic.ict_count", d.Systematic.ICTCount},
		{"systematic.earth_count", d.Systematic.EarthCount},
		{"systematic.ict_radiance", d.Systematic.ICTRadiance},
		{"systematic.orbit_temp", d.Systematic.OrbitTemp},
		{"systematic.ref_radiance", d.Systematic.RefRadiance},
		{"systematic.k", d.Systematic.K},
	}
	for _, s := range sys {
		if s.u < 0 {
			return fmt.Errorf("%w: %s = %g", errs.ErrNegativeUncertainty, s.name, s.u)
		}
	}

	return d.validateScanlineUncertainty()
}

// validateScanlineUncertainty enforces that every record of a scanline group
// declares the same scanline-level sigma for the scanline-correlated
// variables.
func (d *Dataset) validateScanlineUncertainty() error {
	first := make(map[int64]int, len(d.Scanline))
	for i, idx := range d.Scanline {
		lead, seen := first[idx]
		if !seen {
			first[idx] = i
			continue
		}
		if d.Random.SpaceCount[i] != d.Random.SpaceCount[lead] {
			return fmt.Errorf("%w: scanline %d declares space-count sigmas %g and %g",
				errs.ErrShapeMismatch, idx, d.Random.SpaceCount[lead], d.Random.SpaceCount[i])
		}
		if d.Random.ICTCount[i] != d.Random.ICTCount[lead] {
			return fmt.Errorf("%w: scanline %d declares ict-count sigmas %g and %g",
				errs.ErrShapeMismatch, idx, d.Random.ICTCount[lead], d.Random.ICTCount[i])
		}
	}

	return nil
}
