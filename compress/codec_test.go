package compress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayload() []byte {
	var buf bytes.Buffer
	for i := 0; i < 200; i++ {
		buf.WriteString("1.5234e-3,-2.25e-5,0.333333333,1\n")
	}

	return buf.Bytes()
}

func TestTypeNames(t *testing.T) {
	tests := []struct {
		ct   Type
		name string
	}{
		{TypeNone, "none"},
		{TypeZstd, "zstd"},
		{TypeS2, "s2"},
		{TypeLZ4, "lz4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.ct.String())
			got, err := TypeFromString(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.ct, got)
		})
	}

	assert.Equal(t, "unknown", Type(200).String())
	_, err := TypeFromString("gzip")
	require.Error(t, err)
	_, err = ForType(Type(200))
	require.Error(t, err)
}

func TestCodecRoundTrip(t *testing.T) {
	payload := testPayload()

	for _, ct := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := ForType(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			if ct != TypeNone {
				assert.Less(t, len(compressed), len(payload))
			}

			got, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestCodecEmptyInput(t *testing.T) {
	for _, ct := range []Type{TypeNone, TypeZstd, TypeS2, TypeLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := ForType(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			got, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCodecRejectsCorruptData(t *testing.T) {
	garbage := []byte(strings.Repeat("not a frame", 8))
	codec, err := ForType(TypeZstd)
	require.NoError(t, err)
	_, err = codec.Decompress(garbage)
	require.Error(t, err)
}

func TestCodecConcurrentUse(t *testing.T) {
	codec, err := ForType(TypeZstd)
	require.NoError(t, err)
	payload := testPayload()

	done := make(chan error, 8)
	for g := 0; g < 8; g++ {
		go func() {
			for i := 0; i < 50; i++ {
				c, err := codec.Compress(payload)
				if err != nil {
					done <- err
					return
				}
				d, err := codec.Decompress(c)
				if err != nil {
					done <- err
					return
				}
				if !bytes.Equal(d, payload) {
					done <- assert.AnError
					return
				}
			}
			done <- nil
		}()
	}
	for g := 0; g < 8; g++ {
		require.NoError(t, <-done)
	}
}
