package chunk

import (
	"bytes"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
)

// Spans partitions an in-memory buffer without copying. It produces the same
// chunks as a Splitter over the same bytes.
type Spans[C algorithms.Leveled, S any] struct {
	data    []byte
	extents *boundary.Extents[C, S]
	start   int
}

// NewSpans starts a zero-copy splitter over data. data must not be modified
// while the chunks are in use. It panics if the policy is invalid.
func NewSpans[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p boundary.Policy, data []byte) *Spans[C, S] {
	return &Spans[C, S]{
		data:    data,
		extents: boundary.NewExtents(h, p, bytes.NewReader(data)),
	}
}

// Next returns the next chunk, or io.EOF when data is exhausted. Data of the
// returned chunk is a full-capacity-limited subslice of the input.
func (s *Spans[C, S]) Next() (Resumable[S], error) {
	ext, err := s.extents.Next()
	if err != nil {
		return Resumable[S]{}, err
	}

	end := s.start + ext.Length
	c := Resumable[S]{
		Offset: int64(s.start),
		Data:   s.data[s.start:end:end],
		Kind:   ext.Kind,
		Level:  ext.Level,
		State:  ext.State,
	}
	s.start = end
	return c, nil
}
