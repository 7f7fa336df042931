package algorithms

// Bozo32 is a polynomial accumulator over Z/2^32 with a single scalar state:
// state' = state*P + new - old*P^W.
type Bozo32 struct{}

const bozoPrime uint32 = 65521

var bozoPrimePow = func() uint32 {
	pow := uint32(1)
	for i := 0; i < WindowSize; i++ {
		pow *= bozoPrime
	}
	return pow
}()

func (Bozo32) Name() string { return "Bozo32" }

func (Bozo32) InitialState() uint32 { return 0 }

func (Bozo32) ProcessByte(state uint32, oldByte, newByte byte) (Sum32, uint32) {
	sum := state*bozoPrime + uint32(newByte) - uint32(oldByte)*bozoPrimePow
	return Sum32(sum), sum
}
