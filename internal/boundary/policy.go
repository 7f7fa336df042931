// Package boundary turns a rolling checksum stream into chunk boundaries.
//
// A Policy decides where a chunk ends: a byte whose checksum level reaches
// Threshold ends the chunk once it holds at least MinSize bytes, and a chunk
// that reaches MaxSize bytes is cut unconditionally.
package boundary

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMinSize is returned when MinSize is negative.
	ErrInvalidMinSize = errors.New("minSize must not be negative")

	// ErrInvalidMaxSize is returned when MaxSize is not positive.
	ErrInvalidMaxSize = errors.New("maxSize must be greater than 0")

	// ErrMaxBelowMin is returned when MaxSize is smaller than MinSize.
	ErrMaxBelowMin = errors.New("maxSize must not be smaller than minSize")
)

// Policy holds the boundary selection parameters.
type Policy struct {
	Threshold uint32
	MinSize   int
	MaxSize   int
}

// Validate checks the policy preconditions.
func (p Policy) Validate() error {
	if p.MinSize < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinSize, p.MinSize)
	}
	if p.MaxSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSize, p.MaxSize)
	}
	if p.MaxSize < p.MinSize {
		return fmt.Errorf("%w: maxSize (%d), minSize (%d)", ErrMaxBelowMin, p.MaxSize, p.MinSize)
	}
	return nil
}

// mustValidate panics on an invalid policy. Engines cannot honour the chunk
// length bounds without these preconditions.
func (p Policy) mustValidate() {
	if err := p.Validate(); err != nil {
		panic("boundary: invalid policy: " + err.Error())
	}
}
