package hashsplit_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/hashsplit"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int
		want string
	}{
		{65536, "64Ki"},
		{2097152, "2Mi"},
		{1 << 30, "1Gi"},
		{6 << 30, "6Gi"},
		{1536, "1536"},
		{3072, "3Ki"},
		{13, "13"},
		{1000, "1000"},
		{0, "0Gi"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hashsplit.FormatSize(tt.size), "size %d", tt.size)
	}
}

func TestConfigString(t *testing.T) {
	assert.Equal(t, "HashSplit_13_RRS1_64Ki_2Mi", hashsplit.NewRRS(algorithms.RRS1, 13, 65536, 2097152).String())
	assert.Equal(t, "HashSplit_10_RRS2_1000_1Mi", hashsplit.NewRRS(algorithms.RRS2, 10, 1000, 1<<20).String())
	assert.Equal(t, "HashSplit_8_Bozo32_0Gi_4Ki", hashsplit.NewBozo32(8, 0, 4096).String())
}

func TestConfigStringWithoutName(t *testing.T) {
	cfg := hashsplit.New[algorithms.Sum32, algorithms.RRSState](struct {
		algorithms.Hasher[algorithms.Sum32, algorithms.RRSState]
	}{algorithms.RRS1}, boundary.Policy{Threshold: 1, MaxSize: 1024})
	assert.Contains(t, cfg.String(), "HashSplit_1_struct")
	assert.Contains(t, cfg.String(), "_0Gi_1Ki")
}

func TestNewPanicsOnInvalidPolicy(t *testing.T) {
	assert.Panics(t, func() { hashsplit.NewRRS(algorithms.RRS1, 13, 100, 10) })
	assert.Panics(t, func() { hashsplit.NewBozo32(13, 0, 0) })
}

func TestConfigEnginesAgree(t *testing.T) {
	data := make([]byte, 100000)
	rand.New(rand.NewSource(1)).Read(data)
	cfg := hashsplit.NewRRS(algorithms.RRS1, 8, 64, 4096)

	owned, err := chunk.Collect[algorithms.RRSState](cfg.Splits(bytes.NewReader(data)))
	require.NoError(t, err)
	borrowed, err := chunk.Collect[algorithms.RRSState](cfg.Spans(data))
	require.NoError(t, err)
	require.Equal(t, len(owned), len(borrowed))

	tr, err := cfg.Tree(bytes.NewReader(data), 10, 12)
	require.NoError(t, err)
	assert.Equal(t, owned, tr.Chunks())

	ext := cfg.Extents(bytes.NewReader(data))
	for i := range owned {
		x, err := ext.Next()
		require.NoError(t, err)
		assert.Equal(t, owned[i].Len(), x.Length)
		assert.Equal(t, owned[i].Kind, x.Kind)
	}

	var dataEvents int
	d := cfg.Delimited(bytes.NewReader(data))
	for {
		ev, err := d.Next()
		require.NoError(t, err)
		if ev.Kind == boundary.Data {
			dataEvents++
		}
		if ev.Kind == boundary.Eof {
			break
		}
	}
	assert.Equal(t, len(data), dataEvents)

	i := len(owned) / 2
	start, end := owned[i].Range()
	s, err := cfg.Resume(owned[i], data[start-algorithms.WindowSize:start], bytes.NewReader(data[end:]))
	require.NoError(t, err)
	rest, err := chunk.Collect[algorithms.RRSState](s)
	require.NoError(t, err)
	assert.Equal(t, owned[i+1:], rest)
}

func TestOpen(t *testing.T) {
	assert.Equal(t, []string{"Bozo32", "RRS1", "RRS2"}, hashsplit.Algorithms())

	p := boundary.Policy{Threshold: 13, MinSize: 1 << 16, MaxSize: 1 << 21}
	for _, name := range hashsplit.Algorithms() {
		e, err := hashsplit.Open(name, p)
		require.NoError(t, err)
		assert.Equal(t, name, e.Algorithm())
		assert.Equal(t, p, e.Policy())
		assert.Equal(t, "HashSplit_13_"+name+"_64Ki_2Mi", e.String())
	}

	_, err := hashsplit.Open("adler32", p)
	assert.ErrorIs(t, err, hashsplit.ErrUnknownAlgorithm)

	_, err = hashsplit.Open("RRS1", boundary.Policy{MinSize: 10, MaxSize: 5})
	assert.ErrorIs(t, err, boundary.ErrMaxBelowMin)
}

func TestEngineMatchesTypedConfig(t *testing.T) {
	data := make([]byte, 50000)
	rand.New(rand.NewSource(2)).Read(data)

	typed := hashsplit.NewBozo32(6, 32, 2048)
	want, err := chunk.Collect[uint32](typed.Splits(bytes.NewReader(data)))
	require.NoError(t, err)

	e, err := hashsplit.Open("Bozo32", typed.Policy)
	require.NoError(t, err)
	for _, it := range []chunk.Iterator[any]{e.Splits(bytes.NewReader(data)), e.Spans(data)} {
		got, err := chunk.Collect[any](it)
		require.NoError(t, err)
		require.Equal(t, len(want), len(got))
		for i := range want {
			assert.Equal(t, want[i].Data, got[i].Data)
			assert.Equal(t, want[i].Level, got[i].Level)
			assert.Equal(t, want[i].State, got[i].State)
		}
	}

	ext := e.Extents(bytes.NewReader(data))
	for i := range want {
		x, err := ext.Next()
		require.NoError(t, err)
		assert.Equal(t, want[i].Len(), x.Length)
	}

	tr, err := e.Tree(bytes.NewReader(data), 9)
	require.NoError(t, err)
	assert.Equal(t, len(want), tr.Len())
	assert.Equal(t, int64(len(data)), tr.Size())
}
