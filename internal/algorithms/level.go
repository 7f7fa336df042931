package algorithms

import "math/bits"

// Leveled maps a checksum to its significance level. For a uniformly
// distributed checksum the probability of level >= k is 2^-k, so a single hash
// stream yields an exponential family of split granularities.
type Leveled interface {
	Level() uint32
}

// Sum32 is a 32-bit checksum.
type Sum32 uint32

// Level returns the number of trailing zero bits; zero has level 32.
func (s Sum32) Level() uint32 {
	return uint32(bits.TrailingZeros32(uint32(s)))
}

// Flag is a boolean checksum: level 1 when set, 0 otherwise.
type Flag bool

func (f Flag) Level() uint32 {
	if f {
		return 1
	}
	return 0
}
