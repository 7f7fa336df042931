// Package chunk materializes the boundary stream into chunks, either by
// copying bytes into owned buffers or by slicing an in-memory input.
package chunk

import (
	"errors"
	"io"

	"github.com/hoangsonww/hashsplit/internal/boundary"
)

var (
	// ErrShortHistory is returned when fewer bytes than the window needs are
	// available to resume after a chunk.
	ErrShortHistory = errors.New("not enough history to rebuild the rolling window")

	// ErrNotResumable is returned when resuming after a chunk that was not
	// ended by a boundary: the run counter at Eof is not reconstructible.
	ErrNotResumable = errors.New("chunk does not end on a boundary")
)

// Resumable is a chunk together with the checksum state at its last byte.
//
// State alone does not let a window-based checksum continue: the bytes that
// leave the window after the chunk are needed as well. Tail and Resume take
// them explicitly.
type Resumable[S any] struct {
	// Offset is the position of the first byte in the stream.
	Offset int64

	// Data holds the chunk bytes. For chunks produced by Spans it aliases
	// the input buffer.
	Data []byte

	// Kind is Boundary, Capped or Eof.
	Kind boundary.Kind

	// Level is the significance level of the boundary; zero unless Kind
	// is Boundary.
	Level uint32

	// State is the checksum state after the last byte of Data.
	State S
}

// Len returns the chunk length.
func (c Resumable[S]) Len() int {
	return len(c.Data)
}

// Range returns the half-open stream interval covered by the chunk.
func (c Resumable[S]) Range() (start, end int64) {
	return c.Offset, c.Offset + int64(len(c.Data))
}

// Iterator is implemented by Splitter and Spans.
type Iterator[S any] interface {
	Next() (Resumable[S], error)
}

// Collect drains it and returns every chunk.
func Collect[S any](it Iterator[S]) ([]Resumable[S], error) {
	var chunks []Resumable[S]
	for {
		c, err := it.Next()
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, c)
	}
}
