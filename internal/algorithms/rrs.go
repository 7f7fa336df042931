package algorithms

import "fmt"

// RRSState holds the two running sums of an RRS checksum: A is the plain sum
// of the window and B the position-weighted sum, both reduced mod the modulus.
type RRSState struct {
	A, B uint32
}

// RRS is the rsync/bup style dual running sum. Every (modulus, offset) pair is
// a distinct algorithm; different pairs are uncorrelated enough to be used as
// independent significance sources.
type RRS struct {
	name    string
	modulus uint32
	offset  uint32
}

var (
	// RRS1 is the bup-compatible parameterisation.
	RRS1 = NewRRS("RRS1", 1<<16, 31)

	// RRS2 uses the largest prime below 2^16.
	RRS2 = NewRRS("RRS2", 65521, 17)
)

// NewRRS returns an RRS algorithm. The modulus must lie in [1, 1<<16] so both
// sums fit the 16-bit halves of the checksum.
func NewRRS(name string, modulus, offset uint32) RRS {
	if modulus == 0 || modulus > 1<<16 {
		panic(fmt.Sprintf("algorithms: RRS modulus %d out of range [1, 65536]", modulus))
	}
	return RRS{name: name, modulus: modulus, offset: offset}
}

func (r RRS) Name() string { return r.name }

func (r RRS) Modulus() uint32 { return r.modulus }

func (r RRS) Offset() uint32 { return r.offset }

// InitialState is the state after a window of WindowSize zero bytes, which
// keeps both sums a pure function of the window contents.
func (r RRS) InitialState() RRSState {
	m := uint64(r.modulus)
	w := uint64(WindowSize)
	off := uint64(r.offset)
	return RRSState{
		A: uint32(w * off % m),
		B: uint32(w * (w + 1) / 2 * off % m),
	}
}

func (r RRS) ProcessByte(state RRSState, oldByte, newByte byte) (Sum32, RRSState) {
	m := r.modulus
	a := (state.A + m - uint32(oldByte)%m + uint32(newByte)%m) % m
	b := (state.B + m - r.drop(oldByte) + a) % m
	return Sum32(b | a<<16), RRSState{A: a, B: b}
}

// ProcessSlice keeps both sums in locals for the whole batch.
func (r RRS) ProcessSlice(state RRSState, oldData, newData []byte) (Sum32, RRSState) {
	mustPair(len(oldData), len(newData))
	if len(newData) == 0 {
		return 0, state
	}

	m := r.modulus
	a, b := state.A, state.B
	for i, in := range newData {
		out := oldData[i]
		a = (a + m - uint32(out)%m + uint32(in)%m) % m
		b = (b + m - r.drop(out) + a) % m
	}
	return Sum32(b | a<<16), RRSState{A: a, B: b}
}

// drop is W*(old+offset) mod M, the weight the evicted byte carried in B.
func (r RRS) drop(old byte) uint32 {
	return uint32(uint64(WindowSize) * (uint64(old) + uint64(r.offset)) % uint64(r.modulus))
}
