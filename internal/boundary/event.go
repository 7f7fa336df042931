package boundary

import "fmt"

// Kind tags an Event or an Extent.
type Kind uint8

const (
	// Data carries one input byte.
	Data Kind = iota
	// Boundary ends a chunk at a byte whose level reached the threshold.
	Boundary
	// Capped ends a chunk that reached MaxSize.
	Capped
	// Eof ends the stream.
	Eof
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Boundary:
		return "boundary"
	case Capped:
		return "capped"
	case Eof:
		return "eof"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, candidate := range []Kind{Data, Boundary, Capped, Eof} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("boundary: unknown kind %q", text)
}

// Event is one step of a delimited stream. Byte is set for Data, Level for
// Boundary, and State for every kind except Data.
type Event[S any] struct {
	Kind  Kind
	Byte  byte
	Level uint32
	State S
}

// IsBoundary reports whether e ends a chunk.
func (e Event[S]) IsBoundary() bool {
	return e.Kind != Data
}
