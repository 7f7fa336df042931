package compression_test

import (
	"bufio"
	"bytes"
	"io"
	"math/rand"
	"strconv"
	"testing"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/compression"
)

type (
	sum   = algorithms.Sum32
	state = algorithms.RRSState
)

var benchPolicy = boundary.Policy{Threshold: 13, MinSize: 2048, MaxSize: 65536}

// benchInput is half random and half repetitive so that chunks compress unevenly.
func benchInput(n int) []byte {
	data := bytes.Repeat([]byte("content defined chunking "), n/25+1)[:n]
	rand.New(rand.NewSource(1)).Read(data[:n/2])
	return data
}

func compressed(b *testing.B, t compression.Type, data []byte) []byte {
	b.Helper()
	c, err := compression.NewCompressor(t, 3)
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()
	out, err := c.Compress(data)
	if err != nil {
		b.Fatal(err)
	}
	return out
}

func splitAll(b *testing.B, r io.Reader) []chunk.Resumable[state] {
	b.Helper()
	chunks, err := chunk.Collect[state](chunk.NewSplitter[sum, state](algorithms.RRS1, benchPolicy, bufio.NewReader(r)))
	if err != nil {
		b.Fatal(err)
	}
	return chunks
}

// Estimating the compressed size of every chunk of a file, as stats does.
func BenchmarkChunkCompressedSize(b *testing.B) {
	data := benchInput(4 << 20)
	chunks := splitAll(b, bytes.NewReader(data))

	c, err := compression.DefaultCompressor()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		total := 0
		for _, ch := range chunks {
			n, err := c.CompressedSize(ch.Data)
			if err != nil {
				b.Fatal(err)
			}
			total += n
		}
		if total == 0 {
			b.Fatal("no compressed output")
		}
	}
}

func BenchmarkCompressedSizeByChunkSize(b *testing.B) {
	data := benchInput(1 << 20)
	c, err := compression.DefaultCompressor()
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	for _, size := range []int{2048, 8192, 65536} {
		b.Run(strconv.Itoa(size), func(b *testing.B) {
			b.SetBytes(int64(size))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				off := (i * size) % (len(data) - size)
				if _, err := c.CompressedSize(data[off : off+size]); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// Splitting a compressed input through an auto-detecting reader.
func BenchmarkSplitDecompressed(b *testing.B) {
	data := benchInput(4 << 20)

	for _, t := range []compression.Type{compression.None, compression.Gzip, compression.Zstd} {
		src := data
		if t != compression.None {
			src = compressed(b, t, data)
		}
		b.Run(t.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				r, err := compression.NewReader(compression.Auto, bytes.NewReader(src))
				if err != nil {
					b.Fatal(err)
				}
				if chunks := splitAll(b, r); len(chunks) == 0 {
					b.Fatal("no chunks")
				}
				r.Close()
			}
		})
	}
}
