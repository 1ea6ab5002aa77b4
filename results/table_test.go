package results

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmosat/harmc/compress"
	"github.com/harmosat/harmc/errs"
)

func testTable(trials int) *Table {
	t := &Table{
		Coefficients: 3,
		Trials:       trials,
		Seed:         42,
		WindowLength: 25,
		Fingerprint:  0xdeadbeefcafe1234,
	}
	for i := 0; i < trials; i++ {
		t.Rows = append(t.Rows, Row{
			Beta:   []float64{1.5 + float64(i), -2.25e-5, float64(i) / 3},
			Status: 1 + i%2,
		})
	}

	return t
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := testTable(5)
	require.True(t, orig.Complete())

	data, err := Encode(orig)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestEncodeDecodeCompressed(t *testing.T) {
	orig := testTable(200)
	plain, err := Encode(orig)
	require.NoError(t, err)

	for _, ct := range []compress.Type{compress.TypeZstd, compress.TypeS2, compress.TypeLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			data, err := Encode(orig, WithCompression(ct))
			require.NoError(t, err)
			assert.Less(t, len(data), len(plain), "repetitive table should compress")

			got, err := Decode(data, WithCompression(ct))
			require.NoError(t, err)
			assert.Equal(t, orig, got)

			// Wrong codec on read fails cleanly.
			_, err = Decode(data)
			require.Error(t, err)
		})
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	data, err := Encode(testTable(2))
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# harmc trial table v1\n"))
	assert.Contains(t, text, "# coefficients 3\n")
	assert.Contains(t, text, "# trials 2\n")
	assert.Contains(t, text, "# seed 42\n")
	assert.Contains(t, text, "# window 25\n")
	assert.Contains(t, text, "# fingerprint deadbeefcafe1234\n")
	assert.Contains(t, text, "b0,b1,b2,status\n")
}

func TestEncodeRowMismatch(t *testing.T) {
	tab := testTable(2)
	tab.Rows[1].Beta = []float64{1}
	_, err := Encode(tab)
	require.Error(t, err)
}

func TestDecodeIncompleteTable(t *testing.T) {
	tab := testTable(5)
	tab.Rows = tab.Rows[:3]
	require.False(t, tab.Complete())

	data, err := Encode(tab)
	require.NoError(t, err)

	got, err := Decode(data)
	require.ErrorIs(t, err, errs.ErrTableIncomplete)
	// The partial rows stay available despite the flag.
	require.NotNil(t, got)
	assert.Len(t, got.Rows, 3)
	assert.Equal(t, 5, got.Trials)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing coefficients header", "# trials 1\nb0,status\n1.0,1\n"},
		{"bad coefficient value", "# coefficients 2\n# trials 1\nb0,b1,status\nx,2.0,1\n"},
		{"bad status value", "# coefficients 2\n# trials 1\nb0,b1,status\n1.0,2.0,ok\n"},
		{"field count", "# coefficients 2\n# trials 1\nb0,b1,status\n1.0,1\n"},
		{"bad header number", "# coefficients many\nb0,status\n"},
		{"bad fingerprint", "# coefficients 1\n# fingerprint zz\nb0,status\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.ErrorIs(t, err, errs.ErrTableFormat)
		})
	}
}

func TestWriteRead(t *testing.T) {
	orig := testTable(4)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, orig))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestWriteFileReadFile(t *testing.T) {
	orig := testTable(6)
	path := filepath.Join(t.TempDir(), "trials.csv.zst")

	require.NoError(t, WriteFile(path, orig, WithCompression(compress.TypeZstd)))
	got, err := ReadFile(path, WithCompression(compress.TypeZstd))
	require.NoError(t, err)
	assert.Equal(t, orig, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
