package boundary

import (
	"errors"
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/rolling"
)

// Detector is the boundary state machine. Every input byte yields a Data
// event; a boundary triggered by that byte is held back and delivered on the
// following call, so the stream always reads
//
//	Data* (Boundary|Capped) (Data* (Boundary|Capped))* Data* Eof
type Detector[C algorithms.Leveled, S any] struct {
	policy  Policy
	input   *rolling.Rolling[C, S]
	pending Event[S]
	holding bool
	counter int
	halted  bool
}

// NewDetector starts a detector over src. It panics if the policy is invalid.
func NewDetector[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p Policy, src io.ByteReader) *Detector[C, S] {
	return newDetector(p, rolling.New(h, src))
}

// ResumeDetector continues a stream that ended on a boundary. state and tail
// describe the engine at that boundary, see rolling.Resume.
func ResumeDetector[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p Policy, state S, tail []byte, src io.ByteReader) *Detector[C, S] {
	return newDetector(p, rolling.Resume(h, state, tail, src))
}

func newDetector[C algorithms.Leveled, S any](p Policy, input *rolling.Rolling[C, S]) *Detector[C, S] {
	p.mustValidate()
	return &Detector[C, S]{policy: p, input: input}
}

// Next returns the next event. After the Eof event it returns io.EOF. Read
// errors other than io.EOF are returned as is and leave the detector usable.
func (d *Detector[C, S]) Next() (Event[S], error) {
	if d.holding {
		d.holding = false
		return d.pending, nil
	}
	if d.halted {
		return Event[S]{}, io.EOF
	}

	b, sum, err := d.input.Next()
	if errors.Is(err, io.EOF) {
		d.halted = true
		return Event[S]{Kind: Eof, State: d.input.State()}, nil
	}
	if err != nil {
		return Event[S]{}, err
	}

	d.counter++
	if level := sum.Level(); level >= d.policy.Threshold && d.counter >= d.policy.MinSize {
		d.stage(Event[S]{Kind: Boundary, Level: level, State: d.input.State()})
	} else if d.counter == d.policy.MaxSize {
		d.stage(Event[S]{Kind: Capped, State: d.input.State()})
	}

	return Event[S]{Kind: Data, Byte: b}, nil
}

// stage holds a boundary for the next call. The run counter restarts here,
// not when the boundary is delivered.
func (d *Detector[C, S]) stage(e Event[S]) {
	d.pending = e
	d.holding = true
	d.counter = 0
}

// Policy returns the detector's policy.
func (d *Detector[C, S]) Policy() Policy {
	return d.policy
}

// Window returns the engine's live window, see rolling.Rolling.Window.
func (d *Detector[C, S]) Window() []byte {
	return d.input.Window()
}
