// Package rolling drives a checksum algorithm over a byte stream through a
// fixed-size ring buffer, producing one checksum per input byte.
package rolling

import (
	"errors"
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
)

const window = algorithms.WindowSize

// Rolling is a forward-only window engine. Before WindowSize bytes have been
// consumed the missing positions are zero bytes.
type Rolling[C algorithms.Leveled, S any] struct {
	hasher algorithms.Hasher[C, S]
	state  S
	cursor int
	ring   [window]byte
	seen   uint64
	src    io.ByteReader
}

// New starts an engine at the algorithm's initial state.
func New[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], src io.ByteReader) *Rolling[C, S] {
	return &Rolling[C, S]{
		hasher: h,
		state:  h.InitialState(),
		src:    src,
	}
}

// Warm starts an engine and consumes one full window before returning, so the
// returned sum covers WindowSize real bytes. ok is false when src holds fewer
// than WindowSize bytes; that is not an error.
func Warm[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], src io.ByteReader) (r *Rolling[C, S], sum C, ok bool, err error) {
	r = New(h, src)
	for i := 0; i < window; i++ {
		_, sum, err = r.Next()
		if errors.Is(err, io.EOF) {
			var zero C
			return nil, zero, false, nil
		}
		if err != nil {
			return nil, sum, false, err
		}
	}
	return r, sum, true, nil
}

// Resume rebuilds an engine that has already consumed some stream. state is
// the saved state and tail holds the bytes that preceded the resume point:
// the last WindowSize of them, or all of them when fewer were ever seen.
// Longer tails are truncated to their last WindowSize bytes.
func Resume[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], state S, tail []byte, src io.ByteReader) *Rolling[C, S] {
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	r := &Rolling[C, S]{
		hasher: h,
		state:  state,
		seen:   uint64(len(tail)),
		src:    src,
	}
	// The oldest live byte sits at the cursor, zeros fill what was never seen.
	copy(r.ring[window-len(tail):], tail)
	return r
}

// Feed slides the window over b and returns the new checksum.
func (r *Rolling[C, S]) Feed(b byte) C {
	sum, state := r.hasher.ProcessByte(r.state, r.ring[r.cursor], b)
	r.state = state
	r.ring[r.cursor] = b
	r.cursor++
	if r.cursor == window {
		r.cursor = 0
	}
	r.seen++
	return sum
}

// Next pulls one byte from the source and feeds it. It returns io.EOF once the
// source is exhausted; other read errors are returned unchanged.
func (r *Rolling[C, S]) Next() (byte, C, error) {
	var zero C
	b, err := r.src.ReadByte()
	if err != nil {
		return 0, zero, err
	}
	return b, r.Feed(b), nil
}

// State returns the state after the last fed byte.
func (r *Rolling[C, S]) State() S {
	return r.state
}

// Seen reports how many bytes the engine has consumed, counting a resumed
// tail.
func (r *Rolling[C, S]) Seen() uint64 {
	return r.seen
}

// Window returns a copy of the live window in stream order: the last
// min(WindowSize, Seen()) bytes.
func (r *Rolling[C, S]) Window() []byte {
	n := window
	if r.seen < window {
		n = int(r.seen)
	}

	out := make([]byte, 0, n)
	out = append(out, r.ring[r.cursor:]...)
	out = append(out, r.ring[:r.cursor]...)
	return out[window-n:]
}
