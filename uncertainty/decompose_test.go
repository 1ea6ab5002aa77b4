package uncertainty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmosat/harmc/errs"
	"github.com/harmosat/harmc/matchup"
)

func testDataset(t *testing.T, n, groupLen int) *matchup.Dataset {
	t.Helper()

	ds := matchup.NewDataset(n)
	for i := 0; i < n; i++ {
		group := i / groupLen
		ds.Scanline[i] = int64(group)
		ds.SpaceCount[i] = 1000
		ds.ICTCount[i] = 900
		ds.EarthCount[i] = 400
		ds.ICTRadiance[i] = 95
		ds.OrbitTemp[i] = 288
		ds.RefRadiance[i] = 80
		ds.K[i] = 0.5

		ds.Random.SpaceCount[i] = 1.0 + float64(group)
		ds.Random.ICTCount[i] = 2.0 + float64(group)
		ds.Random.EarthCount[i] = 0.5
		ds.Random.ICTRadiance[i] = 0.2
		ds.Random.OrbitTemp[i] = 0.1
		ds.Random.RefRadiance[i] = 0.3
		ds.Random.K[i] = 0.4
	}
	ds.Systematic.ICTRadiance = 0.25
	ds.Systematic.OrbitTemp = 0.05

	return ds
}

func TestDecomposeClassification(t *testing.T) {
	ds := testDataset(t, 12, 4)
	dec, err := Decompose(ds)
	require.NoError(t, err)

	require.Equal(t, 12, dec.Records)
	require.Equal(t, 3, dec.Groups.NumGroups())

	// Scanline-correlated variables carry one sigma per group and no
	// record-level component.
	for _, v := range []matchup.Variable{matchup.SpaceCount, matchup.ICTCount} {
		require.Nil(t, dec.Independent[v], "%s should have no record-level component", v)
		require.Len(t, dec.Scanline[v], 3)
	}
	assert.Equal(t, []float64{1, 2, 3}, dec.Scanline[matchup.SpaceCount])
	assert.Equal(t, []float64{2, 3, 4}, dec.Scanline[matchup.ICTCount])

	// Record-level variables carry one sigma per record and no scanline
	// component.
	for _, v := range []matchup.Variable{matchup.EarthCount, matchup.ICTRadiance, matchup.OrbitTemp} {
		require.Nil(t, dec.Scanline[v], "%s should have no scanline component", v)
		require.Len(t, dec.Independent[v], 12)
	}

	assert.Equal(t, 0.25, dec.Systematic[matchup.ICTRadiance])
	assert.Equal(t, 0.05, dec.Systematic[matchup.OrbitTemp])
	assert.Zero(t, dec.Systematic[matchup.EarthCount])
	assert.Empty(t, dec.Substitutions)
}

func TestDecomposeInvalidDataset(t *testing.T) {
	ds := testDataset(t, 12, 4)
	ds.K = ds.K[:5]
	_, err := Decompose(ds)
	require.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestDecomposeZeroFloor(t *testing.T) {
	ds := testDataset(t, 8, 4)
	ds.Systematic.ICTRadiance = 0
	ds.Systematic.OrbitTemp = 0

	dec, err := Decompose(ds)
	require.NoError(t, err)

	// Declared-zero systematics on the radiance and temperature channels
	// are floored, and the substitution is recorded rather than silent.
	assert.Equal(t, DefaultSystematicFloor, dec.Systematic[matchup.ICTRadiance])
	assert.Equal(t, DefaultSystematicFloor, dec.Systematic[matchup.OrbitTemp])
	require.Len(t, dec.Substitutions, 2)
	assert.Equal(t, matchup.ICTRadiance, dec.Substitutions[0].Variable)
	assert.Equal(t, matchup.OrbitTemp, dec.Substitutions[1].Variable)
	assert.Contains(t, dec.Substitutions[0].String(), "ict_radiance")

	// Counts advertise no systematic component and get no floor.
	assert.Zero(t, dec.Systematic[matchup.SpaceCount])
}

func TestDecomposeCustomFloor(t *testing.T) {
	ds := testDataset(t, 8, 4)
	ds.Systematic.OrbitTemp = 0

	dec, err := Decompose(ds, WithSystematicFloor(1e-3))
	require.NoError(t, err)
	assert.Equal(t, 1e-3, dec.Systematic[matchup.OrbitTemp])

	_, err = Decompose(ds, WithSystematicFloor(-1))
	require.Error(t, err)
}

func TestRecordSigmaBroadcast(t *testing.T) {
	ds := testDataset(t, 12, 4)
	dec, err := Decompose(ds)
	require.NoError(t, err)

	sig := dec.RecordSigma(matchup.SpaceCount)
	require.Len(t, sig, 12)
	for i := 0; i < 12; i++ {
		assert.Equal(t, 1.0+float64(i/4), sig[i])
	}

	// Record-level variables come back as declared.
	assert.Equal(t, ds.Random.EarthCount, dec.RecordSigma(matchup.EarthCount))
}

func TestTotalSigmaCombinesSystematic(t *testing.T) {
	ds := testDataset(t, 4, 2)
	dec, err := Decompose(ds)
	require.NoError(t, err)

	random := dec.TotalSigma(matchup.ICTRadiance, false)
	combined := dec.TotalSigma(matchup.ICTRadiance, true)
	for i := range random {
		assert.Equal(t, 0.2, random[i])
		assert.InDelta(t, math.Hypot(0.2, 0.25), combined[i], 1e-15)
	}
}

func TestResponseSigma(t *testing.T) {
	ds := testDataset(t, 4, 2)
	ds.Systematic.RefRadiance = 0.1
	ds.Systematic.K = 0.2
	dec, err := Decompose(ds)
	require.NoError(t, err)

	random := dec.ResponseSigma(false)
	combined := dec.ResponseSigma(true)
	wantRandom := math.Sqrt(0.3*0.3 + 0.4*0.4)
	wantCombined := math.Sqrt(0.3*0.3 + 0.4*0.4 + 0.1*0.1 + 0.2*0.2)
	for i := range random {
		assert.InDelta(t, wantRandom, random[i], 1e-15)
		assert.InDelta(t, wantCombined, combined[i], 1e-15)
	}
}

func TestCheckShapes(t *testing.T) {
	ds := testDataset(t, 6, 3)
	dec, err := Decompose(ds)
	require.NoError(t, err)

	require.NoError(t, dec.CheckShapes(6))
	require.ErrorIs(t, dec.CheckShapes(7), errs.ErrShapeMismatch)
}

func TestDecomposeCopiesInputs(t *testing.T) {
	ds := testDataset(t, 6, 3)
	dec, err := Decompose(ds)
	require.NoError(t, err)

	ds.Random.EarthCount[0] = 99
	assert.Equal(t, 0.5, dec.Independent[matchup.EarthCount][0])
}
