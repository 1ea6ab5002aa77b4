// Package results persists Monte Carlo trial tables: one row per trial,
// coefficient columns followed by a solver status column, in a delimited
// text format with a commented header. Tables can optionally be compressed
// with any codec from the compress package.
//
// The header records the run's declared trial count, seed, rolling-average
// window length, and a configuration fingerprint, so a table read back later
// identifies what produced it and whether it is complete.
package results

import (
	"github.com/harmosat/harmc/compress"
	"github.com/harmosat/harmc/internal/options"
)

// Row is one persisted trial: its coefficient vector and the solver status
// code recorded with it.
type Row struct {
	// Beta is the trial's fitted coefficient vector.
	Beta []float64
	// Status is the numeric stop reason of the trial's refit.
	Status int
}

// Table is the persisted form of a Monte Carlo run's trial results.
type Table struct {
	// Coefficients is the number of coefficient columns.
	Coefficients int
	// Trials is the declared trial count. A table whose Rows fall short of
	// Trials is incomplete (an aborted run) and is flagged on read.
	Trials int
	// Seed is the resolved random seed of the run.
	Seed int64
	// WindowLength is the rolling-average scanline window of the dataset.
	WindowLength int
	// Fingerprint identifies the run configuration (xxHash64).
	Fingerprint uint64
	// Rows holds one entry per executed trial, in execution order.
	Rows []Row
}

// Complete reports whether the table holds every declared trial.
func (t *Table) Complete() bool {
	return len(t.Rows) == t.Trials
}

type config struct {
	codec compress.Codec
}

// Option configures reading or writing of a table.
type Option = options.Option[*config]

// WithCompression selects the compression algorithm for the table payload.
// Reader and writer must agree on it; the default is no compression.
func WithCompression(t compress.Type) Option {
	return options.New(func(cfg *config) error {
		codec, err := compress.ForType(t)
		if err != nil {
			return err
		}
		cfg.codec = codec

		return nil
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{codec: compress.NewNoOpCodec()}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
