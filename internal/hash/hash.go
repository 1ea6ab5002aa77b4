// Package hash computes the xxHash64 fingerprints recorded in persisted
// trial-result tables, so a results file identifies the run configuration
// that produced it.
package hash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Fingerprint computes a single xxHash64 over a mixed sequence of integer
// and floating-point fields. Floats hash by their IEEE 754 bit pattern, so
// the fingerprint is exact, not tolerance-based.
type Fingerprint struct {
	d xxhash.Digest
}

// NewFingerprint creates an empty fingerprint accumulator.
func NewFingerprint() *Fingerprint {
	f := &Fingerprint{}
	f.d.Reset()

	return f
}

// AddInt folds a signed integer into the fingerprint.
func (f *Fingerprint) AddInt(v int64) *Fingerprint {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	_, _ = f.d.Write(buf[:])

	return f
}

// AddFloat folds a float64 into the fingerprint by bit pattern.
func (f *Fingerprint) AddFloat(v float64) *Fingerprint {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, _ = f.d.Write(buf[:])

	return f
}

// AddFloats folds a float64 slice into the fingerprint.
func (f *Fingerprint) AddFloats(vs []float64) *Fingerprint {
	for _, v := range vs {
		f.AddFloat(v)
	}

	return f
}

// Sum64 returns the accumulated fingerprint value.
func (f *Fingerprint) Sum64() uint64 {
	return f.d.Sum64()
}
