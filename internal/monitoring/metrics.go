package monitoring

import (
	"math/bits"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hoangsonww/hashsplit/internal/boundary"
)

// Metrics holds chunking metrics for one run
type Metrics struct {
	FilesProcessed atomic.Uint64
	FilesFailed    atomic.Uint64
	BytesProcessed atomic.Uint64

	Chunks         atomic.Uint64
	BoundaryChunks atomic.Uint64
	CappedChunks   atomic.Uint64
	EofChunks      atomic.Uint64

	ChunkSizes   *SizeHistogram
	FileDuration *DurationHistogram
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ChunkSizes:   NewSizeHistogram(),
		FileDuration: NewDurationHistogram(),
	}
}

// RecordChunk counts one chunk by the way it ended
func (m *Metrics) RecordChunk(kind boundary.Kind, size int) {
	m.Chunks.Add(1)
	m.BytesProcessed.Add(uint64(size))
	switch kind {
	case boundary.Boundary:
		m.BoundaryChunks.Add(1)
	case boundary.Capped:
		m.CappedChunks.Add(1)
	case boundary.Eof:
		m.EofChunks.Add(1)
	}
	m.ChunkSizes.Observe(size)
}

// RecordFile records a fully chunked input
func (m *Metrics) RecordFile(duration time.Duration) {
	m.FilesProcessed.Add(1)
	m.FileDuration.Observe(duration)
}

// RecordFileFailed records an input that could not be chunked
func (m *Metrics) RecordFileFailed() {
	m.FilesFailed.Add(1)
}

// DurationBucket counts durations falling under Label
type DurationBucket struct {
	Label string `json:"label"`
	Count uint64 `json:"count"`
}

var durationBounds = []struct {
	label string
	limit time.Duration
}{
	{"0-10ms", 10 * time.Millisecond},
	{"10-100ms", 100 * time.Millisecond},
	{"100ms-1s", time.Second},
	{"1-10s", 10 * time.Second},
	{"10s+", 0},
}

// DurationHistogram tracks duration distributions
type DurationHistogram struct {
	mu      sync.RWMutex
	buckets []uint64
	sum     time.Duration
	count   uint64
}

// NewDurationHistogram creates a new duration histogram
func NewDurationHistogram() *DurationHistogram {
	return &DurationHistogram{
		buckets: make([]uint64, len(durationBounds)),
	}
}

// Observe records a duration observation
func (h *DurationHistogram) Observe(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += d
	h.count++
	h.buckets[durationBucket(d)]++
}

func durationBucket(d time.Duration) int {
	last := len(durationBounds) - 1
	for i, b := range durationBounds[:last] {
		if d < b.limit {
			return i
		}
	}
	return last
}

// Count returns the number of observations
func (h *DurationHistogram) Count() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Average returns the average duration
func (h *DurationHistogram) Average() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return 0
	}
	return h.sum / time.Duration(h.count)
}

// Buckets returns the non-empty buckets from fastest to slowest
func (h *DurationHistogram) Buckets() []DurationBucket {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]DurationBucket, 0, len(h.buckets))
	for i, n := range h.buckets {
		if n > 0 {
			out = append(out, DurationBucket{Label: durationBounds[i].label, Count: n})
		}
	}
	return out
}

// SizeBucket counts sizes in (UpperBound/2, UpperBound].
type SizeBucket struct {
	UpperBound int    `json:"upper_bound"`
	Count      uint64 `json:"count"`
}

// SizeHistogram tracks chunk sizes in power-of-two buckets
type SizeHistogram struct {
	mu       sync.RWMutex
	buckets  map[int]uint64
	sum      uint64
	count    uint64
	min, max int
}

// NewSizeHistogram creates an empty size histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{buckets: make(map[int]uint64)}
}

// Observe records one size; sizes below 1 land in the first bucket
func (h *SizeHistogram) Observe(size int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 || size < h.min {
		h.min = size
	}
	if size > h.max {
		h.max = size
	}
	h.sum += uint64(size)
	h.count++

	shift := 0
	if size > 1 {
		shift = bits.Len(uint(size - 1))
	}
	h.buckets[shift]++
}

// Count returns the number of observations
func (h *SizeHistogram) Count() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Min returns the smallest observed size
func (h *SizeHistogram) Min() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.min
}

// Max returns the largest observed size
func (h *SizeHistogram) Max() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.max
}

// Mean returns the average size
func (h *SizeHistogram) Mean() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return 0
	}
	return float64(h.sum) / float64(h.count)
}

// Buckets returns the non-empty buckets in ascending order
func (h *SizeHistogram) Buckets() []SizeBucket {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]SizeBucket, 0, len(h.buckets))
	for shift, n := range h.buckets {
		out = append(out, SizeBucket{UpperBound: 1 << shift, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpperBound < out[j].UpperBound })
	return out
}
