// Package tree groups chunks into a hierarchy using boundary levels: a chunk
// whose level reaches a tier's threshold closes the open node of that tier.
package tree

import (
	"errors"
	"fmt"
	"io"

	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
)

// Node is either a leaf holding chunks or an internal node holding children.
type Node[S any] struct {
	Children []*Node[S]
	Chunks   []chunk.Resumable[S]

	// Level is the boundary level of the last chunk under the node, zero if
	// that chunk did not end on a boundary.
	Level uint32
}

// IsLeaf reports whether n holds chunks directly.
func (n *Node[S]) IsLeaf() bool {
	return n.Children == nil
}

// Size returns the number of bytes under n.
func (n *Node[S]) Size() int64 {
	var size int64
	for _, c := range n.Chunks {
		size += int64(c.Len())
	}
	for _, child := range n.Children {
		size += child.Size()
	}
	return size
}

// Tree is a finished hierarchy with a single root.
type Tree[S any] struct {
	Root *Node[S]
}

// Walk visits nodes depth-first in stream order. Returning an error from fn
// stops the walk.
func (t *Tree[S]) Walk(fn func(n *Node[S], depth int) error) error {
	return walk(t.Root, 0, fn)
}

func walk[S any](n *Node[S], depth int, fn func(*Node[S], int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Chunks returns the leaves' chunks in stream order.
func (t *Tree[S]) Chunks() []chunk.Resumable[S] {
	var chunks []chunk.Resumable[S]
	_ = t.Walk(func(n *Node[S], _ int) error {
		chunks = append(chunks, n.Chunks...)
		return nil
	})
	return chunks
}

// Len returns the number of chunks.
func (t *Tree[S]) Len() int {
	count := 0
	_ = t.Walk(func(n *Node[S], _ int) error {
		count += len(n.Chunks)
		return nil
	})
	return count
}

// Size returns the number of bytes in the tree.
func (t *Tree[S]) Size() int64 {
	return t.Root.Size()
}

// Height returns the number of node levels, one for a lone leaf.
func (t *Tree[S]) Height() int {
	height := 0
	_ = t.Walk(func(_ *Node[S], depth int) error {
		if depth+1 > height {
			height = depth + 1
		}
		return nil
	})
	return height
}

// Builder assembles a tree from a chunk stream without buffering more than
// the currently open nodes.
type Builder[S any] struct {
	thresholds []uint32
	leaf       []chunk.Resumable[S]
	open       [][]*Node[S]
}

// NewBuilder returns a builder whose tier i closes on levels at or above
// thresholds[i]. It panics unless the thresholds are non-decreasing.
func NewBuilder[S any](thresholds ...uint32) *Builder[S] {
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] < thresholds[i-1] {
			panic(fmt.Sprintf("tree: thresholds must not decrease: %v", thresholds))
		}
	}
	return &Builder[S]{thresholds: append([]uint32(nil), thresholds...)}
}

// Add appends the next chunk of the stream.
func (b *Builder[S]) Add(c chunk.Resumable[S]) {
	b.leaf = append(b.leaf, c)
	if len(b.thresholds) > 0 && c.Kind == boundary.Boundary && c.Level >= b.thresholds[0] {
		b.closeLeaf()
	}
}

func (b *Builder[S]) closeLeaf() {
	last := b.leaf[len(b.leaf)-1]
	n := &Node[S]{Chunks: b.leaf}
	if last.Kind == boundary.Boundary {
		n.Level = last.Level
	}
	b.leaf = nil
	b.push(1, n)
}

// push adds n, a node of height k, to the group waiting for a parent.
func (b *Builder[S]) push(k int, n *Node[S]) {
	for len(b.open) <= k {
		b.open = append(b.open, nil)
	}
	b.open[k] = append(b.open[k], n)
	if k < len(b.thresholds) && n.Level >= b.thresholds[k] {
		b.closeGroup(k)
	}
}

func (b *Builder[S]) closeGroup(k int) {
	children := b.open[k]
	b.open[k] = nil
	b.push(k+1, &Node[S]{Children: children, Level: children[len(children)-1].Level})
}

func (b *Builder[S]) drained(k int) bool {
	for ; k < len(b.open); k++ {
		if len(b.open[k]) > 0 {
			return false
		}
	}
	return true
}

// Finish closes every open node and returns the tree. The builder must not be
// used afterwards.
func (b *Builder[S]) Finish() *Tree[S] {
	if len(b.leaf) > 0 {
		b.closeLeaf()
	}
	for k := 1; k < len(b.open); k++ {
		if len(b.open[k]) == 0 {
			continue
		}
		if len(b.open[k]) == 1 && b.drained(k+1) {
			return &Tree[S]{Root: b.open[k][0]}
		}
		b.closeGroup(k)
	}
	return &Tree[S]{Root: &Node[S]{}}
}

// Build groups an already materialized chunk list.
func Build[S any](chunks []chunk.Resumable[S], thresholds ...uint32) *Tree[S] {
	b := NewBuilder[S](thresholds...)
	for _, c := range chunks {
		b.Add(c)
	}
	return b.Finish()
}

// FromIterator drains it into a tree.
func FromIterator[S any](it chunk.Iterator[S], thresholds ...uint32) (*Tree[S], error) {
	b := NewBuilder[S](thresholds...)
	for {
		c, err := it.Next()
		if errors.Is(err, io.EOF) {
			return b.Finish(), nil
		}
		if err != nil {
			return nil, err
		}
		b.Add(c)
	}
}
