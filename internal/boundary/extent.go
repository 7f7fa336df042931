package boundary

import (
	"errors"
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/rolling"
)

// Extent describes a chunk without its bytes. Length is always positive.
type Extent[S any] struct {
	Length int
	Kind   Kind
	Level  uint32
	State  S
}

// Extents yields the cut points of a stream without retaining any data. It
// applies exactly the rules of Detector, so both agree on every boundary.
type Extents[C algorithms.Leveled, S any] struct {
	policy  Policy
	input   *rolling.Rolling[C, S]
	counter int
	halted  bool
}

// NewExtents starts an extent scanner over src. It panics if the policy is
// invalid.
func NewExtents[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p Policy, src io.ByteReader) *Extents[C, S] {
	p.mustValidate()
	return &Extents[C, S]{policy: p, input: rolling.New(h, src)}
}

// Next returns the next extent, or io.EOF when the stream is exhausted. An
// empty trailing run produces no extent.
func (e *Extents[C, S]) Next() (Extent[S], error) {
	if e.halted {
		return Extent[S]{}, io.EOF
	}

	for {
		_, sum, err := e.input.Next()
		if errors.Is(err, io.EOF) {
			e.halted = true
			if e.counter == 0 {
				return Extent[S]{}, io.EOF
			}
			return e.yield(Eof, 0), nil
		}
		if err != nil {
			return Extent[S]{}, err
		}

		e.counter++
		if level := sum.Level(); level >= e.policy.Threshold && e.counter >= e.policy.MinSize {
			return e.yield(Boundary, level), nil
		} else if e.counter == e.policy.MaxSize {
			return e.yield(Capped, 0), nil
		}
	}
}

func (e *Extents[C, S]) yield(kind Kind, level uint32) Extent[S] {
	x := Extent[S]{Length: e.counter, Kind: kind, Level: level, State: e.input.State()}
	e.counter = 0
	return x
}
