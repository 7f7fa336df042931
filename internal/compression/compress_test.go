package compression

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []byte {
	data := bytes.Repeat([]byte("content defined chunking "), 2000)
	rand.New(rand.NewSource(1)).Read(data[:4096])
	return data
}

func TestParseType(t *testing.T) {
	for _, tt := range []Type{None, Gzip, Zstd, Auto} {
		got, err := ParseType(tt.String())
		require.NoError(t, err)
		assert.Equal(t, tt, got)
	}
	_, err := ParseType("bzip2")
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	data := sample()
	for _, tt := range []struct {
		typ   Type
		level int
	}{{None, 0}, {Gzip, 6}, {Zstd, 3}} {
		t.Run(tt.typ.String(), func(t *testing.T) {
			c, err := NewCompressor(tt.typ, tt.level)
			require.NoError(t, err)
			defer c.Close()

			compressed, err := c.Compress(data)
			require.NoError(t, err)
			if tt.typ != None {
				assert.Less(t, len(compressed), len(data))
			}

			size, err := c.CompressedSize(data)
			require.NoError(t, err)
			assert.Equal(t, len(compressed), size)

			plain, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, data, plain)

			for _, mode := range []Type{tt.typ, Auto} {
				r, err := NewReader(mode, bytes.NewReader(compressed))
				require.NoError(t, err)
				streamed, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, data, streamed, "reader mode %s", mode)
			}
		})
	}
}

func TestNewReaderRejectsCorruptInput(t *testing.T) {
	_, err := NewReader(Gzip, bytes.NewReader([]byte("not gzip at all")))
	assert.Error(t, err)

	r, err := NewReader(Zstd, bytes.NewReader([]byte("not zstd at all")))
	if err == nil {
		_, err = io.ReadAll(r)
		r.Close()
	}
	assert.Error(t, err)
}

func TestAutoPassesPlainInputThrough(t *testing.T) {
	r, err := NewReader(Auto, bytes.NewReader([]byte{0x1f}))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f}, out)
}
