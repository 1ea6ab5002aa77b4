package harmc

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmosat/harmc/compress"
	"github.com/harmosat/harmc/matchup"
	"github.com/harmosat/harmc/measeq"
	"github.com/harmosat/harmc/montecarlo"
	"github.com/harmosat/harmc/results"
)

var trueBeta = []float64{1.0, 0.5, -0.3, 0.2, 0.8, -0.6}

// testDataset builds a dataset whose response follows an affine model with
// trueBeta exactly, one scanline per pair of records.
func testDataset(t *testing.T, n int) *matchup.Dataset {
	t.Helper()

	model := measeq.NewLinear(matchup.NumVariables)
	rng := rand.New(rand.NewSource(12))

	ds := matchup.NewDataset(n)
	ds.WindowLength = 25
	row := make([]float64, matchup.NumVariables)
	for i := 0; i < n; i++ {
		ds.Scanline[i] = int64(i / 2)
		ds.SpaceCount[i] = 10*rng.Float64() - 5
		ds.ICTCount[i] = 10*rng.Float64() - 5
		ds.EarthCount[i] = 10*rng.Float64() - 5
		ds.ICTRadiance[i] = 10*rng.Float64() - 5
		ds.OrbitTemp[i] = 10*rng.Float64() - 5
		for _, v := range matchup.Variables() {
			row[v] = ds.Column(v)[i]
		}

		ds.K[i] = 0.5
		ds.RefRadiance[i] = model.Evaluate(row, trueBeta) - ds.K[i]

		ds.Random.SpaceCount[i] = 0.1
		ds.Random.ICTCount[i] = 0.1
		ds.Random.EarthCount[i] = 0.1
		ds.Random.ICTRadiance[i] = 0.1
		ds.Random.OrbitTemp[i] = 0.1
		ds.Random.RefRadiance[i] = 0.15
		ds.Random.K[i] = 0.05
	}

	return ds
}

func TestRunEndToEnd(t *testing.T) {
	ds := testDataset(t, 40)

	summary, err := Run(ds, measeq.NewLinear(matchup.NumVariables),
		montecarlo.WithTrials(12),
		montecarlo.WithSeed(42),
	)
	require.NoError(t, err)

	require.NotNil(t, summary.BestFit)
	require.True(t, summary.BestFit.Converged())
	for k, want := range trueBeta {
		assert.InDelta(t, want, summary.BestFit.Beta[k], 1e-5, "beta[%d]", k)
	}

	require.Len(t, summary.Trials, 12)
	assert.Equal(t, 12, summary.Converged+summary.Failed)
	assert.Equal(t, int64(42), summary.Seed)
	require.NotNil(t, summary.Cov)
	for k := range trueBeta {
		assert.Greater(t, summary.Cov.At(k, k), 0.0, "coefficient %d should vary across trials", k)
	}
}

func TestFingerprint(t *testing.T) {
	ds := testDataset(t, 20)

	f1 := Fingerprint(ds, 42)
	f2 := Fingerprint(ds, 42)
	assert.Equal(t, f1, f2)

	assert.NotEqual(t, f1, Fingerprint(ds, 43), "seed enters the fingerprint")

	mutated := testDataset(t, 20)
	mutated.EarthCount[7] += 1e-9
	assert.NotEqual(t, f1, Fingerprint(mutated, 42), "data values enter the fingerprint")

	relabeled := testDataset(t, 20)
	relabeled.Scanline[0] = 999
	relabeled.Random.SpaceCount[0] = relabeled.Random.SpaceCount[1]
	relabeled.Random.ICTCount[0] = relabeled.Random.ICTCount[1]
	assert.NotEqual(t, f1, Fingerprint(relabeled, 42), "scanline layout enters the fingerprint")
}

func TestSaveTrialsRoundTrip(t *testing.T) {
	ds := testDataset(t, 30)

	summary, err := Run(ds, measeq.NewLinear(matchup.NumVariables),
		montecarlo.WithTrials(8),
		montecarlo.WithSeed(7),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trials.csv.zst")
	require.NoError(t, SaveTrials(path, summary, ds, results.WithCompression(compress.TypeZstd)))

	table, err := results.ReadFile(path, results.WithCompression(compress.TypeZstd))
	require.NoError(t, err)
	require.True(t, table.Complete())

	assert.Equal(t, len(trueBeta), table.Coefficients)
	assert.Equal(t, 8, table.Trials)
	assert.Equal(t, int64(7), table.Seed)
	assert.Equal(t, ds.WindowLength, table.WindowLength)
	assert.Equal(t, Fingerprint(ds, 7), table.Fingerprint)

	require.Len(t, table.Rows, 8)
	for i, row := range table.Rows {
		assert.Equal(t, summary.Trials[i].Beta, row.Beta, "trial %d", i)
		assert.Equal(t, int(summary.Trials[i].Stop), row.Status)
	}
}
