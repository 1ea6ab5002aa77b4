package hash

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	assert.Equal(t, xxhash.Sum64String("n15_matchups"), ID("n15_matchups"))
	assert.NotEqual(t, ID("a"), ID("b"))
}

func TestFingerprintDeterminism(t *testing.T) {
	build := func() uint64 {
		return NewFingerprint().
			AddInt(42).
			AddFloat(1.5).
			AddFloats([]float64{0.1, 0.2, 0.3}).
			Sum64()
	}
	require.Equal(t, build(), build())
}

func TestFingerprintSensitivity(t *testing.T) {
	base := NewFingerprint().AddInt(1).AddFloat(2.0).Sum64()

	assert.NotEqual(t, base, NewFingerprint().AddInt(2).AddFloat(2.0).Sum64())
	assert.NotEqual(t, base, NewFingerprint().AddInt(1).AddFloat(2.0000000001).Sum64())
	// Field order matters.
	assert.NotEqual(t, base, NewFingerprint().AddFloat(2.0).AddInt(1).Sum64())
}

func TestFingerprintFloatBitPattern(t *testing.T) {
	// Zero and negative zero have distinct bit patterns, so they hash
	// differently.
	plus := NewFingerprint().AddFloat(0.0).Sum64()
	minus := NewFingerprint().AddFloat(negZero()).Sum64()
	assert.NotEqual(t, plus, minus)

	// AddFloats is equivalent to repeated AddFloat.
	a := NewFingerprint().AddFloats([]float64{1, 2, 3}).Sum64()
	b := NewFingerprint().AddFloat(1).AddFloat(2).AddFloat(3).Sum64()
	assert.Equal(t, a, b)
}

func negZero() float64 {
	z := 0.0

	return -z
}
