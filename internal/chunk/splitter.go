package chunk

import (
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
)

// Splitter copies the bytes of each chunk into a buffer it hands over to the
// caller.
type Splitter[C algorithms.Leveled, S any] struct {
	source    *boundary.Detector[C, S]
	reserve   int
	preparing []byte
	offset    int64
}

// NewSplitter starts an owned-buffer splitter over src. It panics if the
// policy is invalid.
func NewSplitter[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p boundary.Policy, src io.ByteReader) *Splitter[C, S] {
	return newSplitter(boundary.NewDetector(h, p, src), 0)
}

func newSplitter[C algorithms.Leveled, S any](d *boundary.Detector[C, S], offset int64) *Splitter[C, S] {
	p := d.Policy()
	reserve := 2 * p.MinSize
	if reserve > p.MaxSize || reserve == 0 {
		reserve = p.MaxSize
	}
	return &Splitter[C, S]{source: d, reserve: reserve, offset: offset}
}

// Next returns the next chunk, or io.EOF when the stream is exhausted. The
// returned Data is owned by the caller.
func (s *Splitter[C, S]) Next() (Resumable[S], error) {
	for {
		ev, err := s.source.Next()
		if err != nil {
			return Resumable[S]{}, err
		}

		if ev.Kind == boundary.Data {
			if s.preparing == nil {
				s.preparing = make([]byte, 0, s.reserve)
			}
			s.preparing = append(s.preparing, ev.Byte)
			continue
		}

		if len(s.preparing) == 0 {
			continue
		}

		c := Resumable[S]{
			Offset: s.offset,
			Data:   s.preparing,
			Kind:   ev.Kind,
			Level:  ev.Level,
			State:  ev.State,
		}
		s.offset += int64(len(c.Data))
		s.preparing = nil
		return c, nil
	}
}

// Window returns the live checksum window, the tail a resume after the most
// recently returned chunk needs.
func (s *Splitter[C, S]) Window() []byte {
	return s.source.Window()
}
