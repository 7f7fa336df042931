package hashsplit

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/tree"
)

// ErrUnknownAlgorithm is returned by Open for unregistered names.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// Engine is a Config whose checksum state is carried as any, for callers that
// pick the algorithm at run time.
type Engine interface {
	fmt.Stringer

	Algorithm() string
	Policy() boundary.Policy

	Extents(src io.ByteReader) ExtentIterator
	Splits(src io.ByteReader) chunk.Iterator[any]
	Spans(data []byte) chunk.Iterator[any]
	Tree(src io.ByteReader, thresholds ...uint32) (*tree.Tree[any], error)
}

// ExtentIterator yields chunk lengths without their bytes.
type ExtentIterator interface {
	Next() (boundary.Extent[any], error)
}

var registry = map[string]func(boundary.Policy) Engine{
	algorithms.RRS1.Name(): func(p boundary.Policy) Engine {
		return Erase(New[algorithms.Sum32, algorithms.RRSState](algorithms.RRS1, p))
	},
	algorithms.RRS2.Name(): func(p boundary.Policy) Engine {
		return Erase(New[algorithms.Sum32, algorithms.RRSState](algorithms.RRS2, p))
	},
	algorithms.Bozo32{}.Name(): func(p boundary.Policy) Engine {
		return Erase(New[algorithms.Sum32, uint32](algorithms.Bozo32{}, p))
	},
}

// Algorithms lists the names Open accepts.
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns the engine for a registered algorithm name. Unlike New it
// reports an invalid policy as an error.
func Open(algorithm string, p boundary.Policy) (Engine, error) {
	build, ok := registry[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownAlgorithm, algorithm, Algorithms())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return build(p), nil
}

// Erase wraps c as an Engine.
func Erase[C algorithms.Leveled, S any](c Config[C, S]) Engine {
	return erased[C, S]{c}
}

type erased[C algorithms.Leveled, S any] struct {
	cfg Config[C, S]
}

func (e erased[C, S]) String() string          { return e.cfg.String() }
func (e erased[C, S]) Algorithm() string       { return algorithmName(e.cfg.Hasher) }
func (e erased[C, S]) Policy() boundary.Policy { return e.cfg.Policy }

func (e erased[C, S]) Extents(src io.ByteReader) ExtentIterator {
	return erasedExtents[C, S]{e.cfg.Extents(src)}
}

func (e erased[C, S]) Splits(src io.ByteReader) chunk.Iterator[any] {
	return erasedChunks[S]{e.cfg.Splits(src)}
}

func (e erased[C, S]) Spans(data []byte) chunk.Iterator[any] {
	return erasedChunks[S]{e.cfg.Spans(data)}
}

func (e erased[C, S]) Tree(src io.ByteReader, thresholds ...uint32) (*tree.Tree[any], error) {
	return tree.FromIterator[any](e.Splits(src), thresholds...)
}

type erasedChunks[S any] struct {
	it chunk.Iterator[S]
}

func (e erasedChunks[S]) Next() (chunk.Resumable[any], error) {
	c, err := e.it.Next()
	if err != nil {
		return chunk.Resumable[any]{}, err
	}
	return chunk.Resumable[any]{Offset: c.Offset, Data: c.Data, Kind: c.Kind, Level: c.Level, State: c.State}, nil
}

type erasedExtents[C algorithms.Leveled, S any] struct {
	it *boundary.Extents[C, S]
}

func (e erasedExtents[C, S]) Next() (boundary.Extent[any], error) {
	x, err := e.it.Next()
	if err != nil {
		return boundary.Extent[any]{}, err
	}
	return boundary.Extent[any]{Length: x.Length, Kind: x.Kind, Level: x.Level, State: x.State}, nil
}
