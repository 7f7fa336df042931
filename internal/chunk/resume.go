package chunk

import (
	"fmt"
	"io"

	"github.com/hoangsonww/hashsplit/internal/algorithms"
	"github.com/hoangsonww/hashsplit/internal/boundary"
)

// Tail returns the checksum window at the end of chunks[i]: the last
// WindowSize bytes of the stream up to and including that chunk, or the whole
// stream prefix when it is shorter. chunks must be consecutive.
func Tail[S any](chunks []Resumable[S], i int) ([]byte, error) {
	need := algorithms.WindowSize
	var parts [][]byte
	j := i
	for ; j >= 0 && need > 0; j-- {
		d := chunks[j].Data
		if len(d) > need {
			d = d[len(d)-need:]
		}
		parts = append(parts, d)
		need -= len(d)
	}
	if need > 0 && chunks[0].Offset > 0 {
		return nil, fmt.Errorf("%w: chunk %d needs %d bytes before offset %d",
			ErrShortHistory, i, need, chunks[0].Offset)
	}

	tail := make([]byte, 0, algorithms.WindowSize-need)
	for k := len(parts) - 1; k >= 0; k-- {
		tail = append(tail, parts[k]...)
	}
	return tail, nil
}

// Resume continues splitting after c. preceding holds the stream bytes right
// before c.Data; together they must cover a full window unless c starts close
// enough to the beginning of the stream. src yields the bytes after c.
func Resume[C algorithms.Leveled, S any](h algorithms.Hasher[C, S], p boundary.Policy, c Resumable[S], preceding []byte, src io.ByteReader) (*Splitter[C, S], error) {
	if c.Kind != boundary.Boundary && c.Kind != boundary.Capped {
		return nil, fmt.Errorf("%w: %s", ErrNotResumable, c.Kind)
	}

	history := c.Data
	if len(history) < algorithms.WindowSize {
		history = append(append([]byte(nil), preceding...), c.Data...)
	}
	_, end := c.Range()
	if len(history) < algorithms.WindowSize && int64(len(history)) < end {
		return nil, fmt.Errorf("%w: have %d bytes, chunk ends at %d", ErrShortHistory, len(history), end)
	}

	d := boundary.ResumeDetector(h, p, c.State, history, src)
	return newSplitter(d, end), nil
}
