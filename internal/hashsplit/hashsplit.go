// Package hashsplit binds a checksum algorithm to a boundary policy and hands
// out the streaming engines built on them.
package hashsplit

import (
	"fmt"
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/tree"
)

// Config is an algorithm together with the policy it splits under. Every
// engine obtained from a Config is independent and starts from the
// algorithm's initial state.
type Config[C algorithms.Leveled, S any] struct {
	Hasher algorithms.Hasher[C, S]
	Policy boundary.Policy
}

// New returns a Config. It panics if the policy is invalid.
func New[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p boundary.Policy) Config[C, S] {
	if err := p.Validate(); err != nil {
		panic("hashsplit: " + err.Error())
	}
	return Config[C, S]{Hasher: h, Policy: p}
}

// NewRRS returns a Config for one of the RRS checksums.
func NewRRS(r algorithms.RRS, threshold uint32, minSize, maxSize int) Config[algorithms.Sum32, algorithms.RRSState] {
	return New[algorithms.Sum32, algorithms.RRSState](r, boundary.Policy{Threshold: threshold, MinSize: minSize, MaxSize: maxSize})
}

// NewBozo32 returns a Config for the Bozo32 checksum.
func NewBozo32(threshold uint32, minSize, maxSize int) Config[algorithms.Sum32, uint32] {
	return New[algorithms.Sum32, uint32](algorithms.Bozo32{}, boundary.Policy{Threshold: threshold, MinSize: minSize, MaxSize: maxSize})
}

// String returns the diagnostic name, for example HashSplit_13_RRS1_64Ki_2Mi.
func (c Config[C, S]) String() string {
	return fmt.Sprintf("HashSplit_%d_%s_%s_%s",
		c.Policy.Threshold, algorithmName(c.Hasher), FormatSize(c.Policy.MinSize), FormatSize(c.Policy.MaxSize))
}

func algorithmName(h any) string {
	if n, ok := h.(algorithms.Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", h)
}

// FormatSize renders z with the largest binary unit that divides it exactly.
func FormatSize(z int) string {
	switch {
	case z%(1<<30) == 0:
		return fmt.Sprintf("%dGi", z>>30)
	case z%(1<<20) == 0:
		return fmt.Sprintf("%dMi", z>>20)
	case z%(1<<10) == 0:
		return fmt.Sprintf("%dKi", z>>10)
	default:
		return fmt.Sprintf("%d", z)
	}
}

// Delimited returns the event stream over src.
func (c Config[C, S]) Delimited(src io.ByteReader) *boundary.Detector[C, S] {
	return boundary.NewDetector(c.Hasher, c.Policy, src)
}

// Extents returns the length-only chunk stream over src.
func (c Config[C, S]) Extents(src io.ByteReader) *boundary.Extents[C, S] {
	return boundary.NewExtents(c.Hasher, c.Policy, src)
}

// Splits returns owned chunks read from src.
func (c Config[C, S]) Splits(src io.ByteReader) *chunk.Splitter[C, S] {
	return chunk.NewSplitter(c.Hasher, c.Policy, src)
}

// Spans returns chunks that alias data.
func (c Config[C, S]) Spans(data []byte) *chunk.Spans[C, S] {
	return chunk.NewSpans(c.Hasher, c.Policy, data)
}

// Resume continues splitting after c; see chunk.Resume.
func (c Config[C, S]) Resume(after chunk.Resumable[S], preceding []byte, src io.ByteReader) (*chunk.Splitter[C, S], error) {
	return chunk.Resume(c.Hasher, c.Policy, after, preceding, src)
}

// Tree splits src and groups the chunks under the given tier thresholds.
func (c Config[C, S]) Tree(src io.ByteReader, thresholds ...uint32) (*tree.Tree[S], error) {
	return tree.FromIterator[S](c.Splits(src), thresholds...)
}
