// Package algorithms defines the rolling checksum capability used by the
// chunking engine and the concrete checksum algorithms that implement it.
//
// An algorithm is a pure transition function: given the previous state, the
// byte leaving the window and the byte entering it, it returns the checksum of
// the new window and the new state. Algorithms hold no per-stream data, so a
// single value can drive any number of independent engines.
package algorithms

import "fmt"

// WindowSize is the number of trailing bytes every rolling checksum depends on.
const WindowSize = 64

// Hasher is a rolling checksum algorithm with checksum type C and state type S.
// S must be safe to copy by value.
type Hasher[C Leveled, S any] interface {
	// InitialState returns the state of a window holding only zero bytes.
	InitialState() S

	// ProcessByte slides the window by one byte.
	ProcessByte(state S, oldByte, newByte byte) (C, S)
}

// SliceProcessor is implemented by algorithms that provide a faster batched
// update. Implementations must return exactly what FoldSlice returns for the
// same inputs.
type SliceProcessor[C Leveled, S any] interface {
	ProcessSlice(state S, oldData, newData []byte) (C, S)
}

// Named associates a stable diagnostic identifier with an algorithm.
type Named interface {
	Name() string
}

// FoldSlice applies ProcessByte to each (old, new) pair in order and returns
// the last checksum and the final state. For empty input the zero checksum and
// the unchanged state are returned. It panics if the slices differ in length.
func FoldSlice[C Leveled, S any](h Hasher[C, S], state S, oldData, newData []byte) (C, S) {
	mustPair(len(oldData), len(newData))

	var sum C
	for i := range newData {
		sum, state = h.ProcessByte(state, oldData[i], newData[i])
	}
	return sum, state
}

// ProcessSlice is the batched update. It uses the algorithm's own
// SliceProcessor when there is one and FoldSlice otherwise.
func ProcessSlice[C Leveled, S any](h Hasher[C, S], state S, oldData, newData []byte) (C, S) {
	if sp, ok := h.(SliceProcessor[C, S]); ok {
		return sp.ProcessSlice(state, oldData, newData)
	}
	return FoldSlice(h, state, oldData, newData)
}

// ProcessBlock is the fixed-size batched update. Both blocks must be exactly
// blockSize bytes long; anything else is a programming error and panics.
func ProcessBlock[C Leveled, S any](h Hasher[C, S], blockSize int, state S, oldBlock, newBlock []byte) (C, S) {
	if len(oldBlock) != blockSize || len(newBlock) != blockSize {
		panic(fmt.Sprintf("algorithms: block length mismatch: want %d, got old=%d new=%d",
			blockSize, len(oldBlock), len(newBlock)))
	}
	return ProcessSlice(h, state, oldBlock, newBlock)
}

func mustPair(oldLen, newLen int) {
	if oldLen != newLen {
		panic(fmt.Sprintf("algorithms: old/new length mismatch: %d != %d", oldLen, newLen))
	}
}
