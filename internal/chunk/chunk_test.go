package chunk_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
)

type (
	sum   = algorithms.Sum32
	state = algorithms.RRSState
)

var testPolicy = boundary.Policy{Threshold: 8, MinSize: 64, MaxSize: 4096}

func randomBytes(seed int64, n int) []byte {
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	return data
}

func split(t testing.TB, p boundary.Policy, data []byte) []chunk.Resumable[state] {
	t.Helper()
	chunks, err := chunk.Collect[state](chunk.NewSplitter[sum, state](algorithms.RRS1, p, bytes.NewReader(data)))
	require.NoError(t, err)
	return chunks
}

func spans(t testing.TB, p boundary.Policy, data []byte) []chunk.Resumable[state] {
	t.Helper()
	chunks, err := chunk.Collect[state](chunk.NewSpans[sum, state](algorithms.RRS1, p, data))
	require.NoError(t, err)
	return chunks
}

func checkPartition(t testing.TB, p boundary.Policy, data []byte, chunks []chunk.Resumable[state]) {
	t.Helper()
	var rebuilt []byte
	var offset int64
	for i, c := range chunks {
		require.Equal(t, offset, c.Offset, "chunk %d offset", i)
		require.NotEmpty(t, c.Data, "chunk %d is empty", i)
		require.LessOrEqual(t, c.Len(), p.MaxSize, "chunk %d too long", i)
		if i < len(chunks)-1 {
			require.GreaterOrEqual(t, c.Len(), p.MinSize, "chunk %d too short", i)
			require.NotEqual(t, boundary.Eof, c.Kind, "chunk %d", i)
		}
		if c.Kind == boundary.Capped {
			require.Equal(t, p.MaxSize, c.Len(), "capped chunk %d", i)
		}
		rebuilt = append(rebuilt, c.Data...)
		offset += int64(c.Len())
	}
	require.True(t, bytes.Equal(data, rebuilt), "chunks do not reassemble the input")
}

func TestSplitterPartitionsInput(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 5000, 100000} {
		data := randomBytes(int64(n), n)
		chunks := split(t, testPolicy, data)
		checkPartition(t, testPolicy, data, chunks)
		if n == 0 {
			assert.Empty(t, chunks)
		}
	}
}

func TestSpansMatchSplitter(t *testing.T) {
	policies := []boundary.Policy{
		testPolicy,
		{Threshold: 0, MinSize: 1, MaxSize: 1},
		{Threshold: 33, MinSize: 0, MaxSize: 700},
		{Threshold: 4, MinSize: 0, MaxSize: 100},
	}
	data := randomBytes(7, 30000)
	for _, p := range policies {
		owned := split(t, p, data)
		borrowed := spans(t, p, data)
		require.Equal(t, len(owned), len(borrowed), "policy %+v", p)
		for i := range owned {
			assert.Equal(t, owned[i].Offset, borrowed[i].Offset)
			assert.Equal(t, owned[i].Data, borrowed[i].Data)
			assert.Equal(t, owned[i].Kind, borrowed[i].Kind)
			assert.Equal(t, owned[i].Level, borrowed[i].Level)
			assert.Equal(t, owned[i].State, borrowed[i].State)
		}
		checkPartition(t, p, data, borrowed)
	}
}

func TestSpansAliasInput(t *testing.T) {
	data := randomBytes(3, 20000)
	for _, c := range spans(t, testPolicy, data) {
		start, end := c.Range()
		require.Same(t, &data[start], &c.Data[0])
		assert.Equal(t, c.Len(), cap(c.Data))
		assert.Equal(t, int64(c.Len()), end-start)
	}
}

func TestTail(t *testing.T) {
	data := randomBytes(11, 20000)
	chunks := split(t, boundary.Policy{Threshold: 4, MinSize: 0, MaxSize: 100}, data)
	for i, c := range chunks {
		tail, err := chunk.Tail(chunks, i)
		require.NoError(t, err)
		_, end := c.Range()
		start := end - algorithms.WindowSize
		if start < 0 {
			start = 0
		}
		assert.Equal(t, data[start:end], tail, "chunk %d", i)
	}

	_, err := chunk.Tail(chunks[5:], 0)
	if chunks[5].Len() < algorithms.WindowSize {
		assert.ErrorIs(t, err, chunk.ErrShortHistory)
	} else {
		assert.NoError(t, err)
	}
}

func TestResumeMatchesRemainder(t *testing.T) {
	data := randomBytes(5, 50000)
	for _, p := range []boundary.Policy{testPolicy, {Threshold: 33, MinSize: 0, MaxSize: 500}} {
		chunks := split(t, p, data)
		for i, c := range chunks {
			if c.Kind == boundary.Eof {
				continue
			}
			start, end := c.Range()
			from := start - algorithms.WindowSize
			if from < 0 {
				from = 0
			}
			s, err := chunk.Resume[sum, state](algorithms.RRS1, p, c, data[from:start], bytes.NewReader(data[end:]))
			require.NoError(t, err)
			rest, err := chunk.Collect[state](s)
			require.NoError(t, err)
			if i == len(chunks)-1 {
				require.Empty(t, rest)
				continue
			}
			require.Equal(t, chunks[i+1:], rest, "resume after chunk %d", i)
		}
	}
}

func TestResumeErrors(t *testing.T) {
	short := chunk.Resumable[state]{Offset: 100, Data: make([]byte, 10), Kind: boundary.Boundary}
	_, err := chunk.Resume[sum, state](algorithms.RRS1, testPolicy, short, nil, bytes.NewReader(nil))
	assert.ErrorIs(t, err, chunk.ErrShortHistory)

	last := chunk.Resumable[state]{Data: make([]byte, 10), Kind: boundary.Eof}
	_, err = chunk.Resume[sum, state](algorithms.RRS1, testPolicy, last, nil, bytes.NewReader(nil))
	assert.ErrorIs(t, err, chunk.ErrNotResumable)

	early := chunk.Resumable[state]{Offset: 5, Data: make([]byte, 10), Kind: boundary.Capped}
	_, err = chunk.Resume[sum, state](algorithms.RRS1, testPolicy, early, make([]byte, 5), bytes.NewReader(nil))
	assert.NoError(t, err)
}

func TestLocalEditKeepsDistantChunks(t *testing.T) {
	p := boundary.Policy{Threshold: 8, MinSize: 64, MaxSize: 1 << 20}
	original := randomBytes(42, 200*1024)
	insert := []byte("a local edit in the middle of the stream")
	edited := append(append(append([]byte(nil), original[:100000]...), insert...), original[100000:]...)

	before := split(t, p, original)
	after := split(t, p, edited)

	seen := make(map[string]bool, len(before))
	for _, c := range before {
		seen[string(c.Data)] = true
	}
	shared := 0
	for _, c := range after {
		if seen[string(c.Data)] {
			shared += c.Len()
		}
	}
	assert.Greater(t, shared, len(edited)*9/10, "edit disturbed too many chunks")
	assert.Equal(t, before[len(before)-1].Data, after[len(after)-1].Data)
	assert.Equal(t, before[0].Data, after[0].Data)
}

func FuzzSplits(f *testing.F) {
	f.Add([]byte("hello, world"), uint8(2), uint16(3), uint16(10))
	f.Add(make([]byte, 1000), uint8(0), uint16(0), uint16(1))
	f.Add(randomBytes(1, 5000), uint8(6), uint16(40), uint16(300))

	f.Fuzz(func(t *testing.T, data []byte, threshold uint8, minSize, extra uint16) {
		p := boundary.Policy{
			Threshold: uint32(threshold % 34),
			MinSize:   int(minSize % 512),
		}
		p.MaxSize = p.MinSize + int(extra%1024) + 1

		owned := split(t, p, data)
		checkPartition(t, p, data, owned)
		borrowed := spans(t, p, data)
		require.Equal(t, len(owned), len(borrowed))
		for i := range owned {
			require.Equal(t, owned[i].Data, borrowed[i].Data)
			require.Equal(t, owned[i].Kind, borrowed[i].Kind)
		}
	})
}

func BenchmarkSplitter(b *testing.B) {
	data := randomBytes(1, 1<<20)
	p := boundary.Policy{Threshold: 13, MinSize: 2048, MaxSize: 65536}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := chunk.Collect[state](chunk.NewSplitter[sum, state](algorithms.RRS1, p, bytes.NewReader(data))); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSpans(b *testing.B) {
	data := randomBytes(1, 1<<20)
	p := boundary.Policy{Threshold: 13, MinSize: 2048, MaxSize: 65536}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := chunk.Collect[state](chunk.NewSpans[sum, state](algorithms.RRS1, p, data)); err != nil {
			b.Fatal(err)
		}
	}
}
