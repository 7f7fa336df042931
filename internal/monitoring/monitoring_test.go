package monitoring

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangsonww/hashsplit/internal/boundary"
)

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info", "json")

	log.Debug("hidden")
	log.WithFields(map[string]interface{}{"file": "a.bin", "chunks": 3}).
		WithError(errors.New("boom")).
		Info("split complete")
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "split complete", entry["message"])
	assert.Equal(t, "a.bin", entry["file"])
	assert.Equal(t, float64(3), entry["chunks"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "timestamp")
}

func TestTextLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn", "text")

	log.Info("quiet")
	log.WithField("algorithm", "RRS1").Warn("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "loud")
	assert.Contains(t, out, "RRS1")
	assert.True(t, log.Enabled("error"))
	assert.False(t, log.Enabled("debug"))
}

func TestWithErrorNil(t *testing.T) {
	log := NewLoggerTo(&bytes.Buffer{}, "info", "json")
	assert.Same(t, log, log.WithError(nil))
}

func TestGlobalLogger(t *testing.T) {
	prev := GetLogger()
	defer SetGlobalLogger(prev)

	var buf bytes.Buffer
	SetGlobalLogger(NewLoggerTo(&buf, "debug", "text"))
	WithFields(map[string]interface{}{"n": 7}).Debug("counted")
	WithField("k", "v").Info("with field")
	assert.Contains(t, buf.String(), "counted")
	assert.Contains(t, buf.String(), "with field")
}

func TestMetricsRecordChunk(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordChunk(boundary.Boundary, 100)
			m.RecordChunk(boundary.Capped, 4096)
			m.RecordChunk(boundary.Eof, 1)
		}()
	}
	wg.Wait()
	m.RecordFile(5 * time.Millisecond)
	m.RecordFileFailed()

	assert.Equal(t, uint64(24), m.Chunks.Load())
	assert.Equal(t, uint64(8), m.BoundaryChunks.Load())
	assert.Equal(t, uint64(8), m.CappedChunks.Load())
	assert.Equal(t, uint64(8), m.EofChunks.Load())
	assert.Equal(t, uint64(8*(100+4096+1)), m.BytesProcessed.Load())
	assert.Equal(t, uint64(1), m.FilesProcessed.Load())
	assert.Equal(t, uint64(1), m.FilesFailed.Load())
	assert.Equal(t, []DurationBucket{{Label: "0-10ms", Count: 1}}, m.FileDuration.Buckets())
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	assert.Zero(t, h.Mean())

	for _, size := range []int{1, 2, 3, 64, 65, 128, 4096} {
		h.Observe(size)
	}
	assert.Equal(t, uint64(7), h.Count())
	assert.Equal(t, 1, h.Min())
	assert.Equal(t, 4096, h.Max())
	assert.InDelta(t, float64(1+2+3+64+65+128+4096)/7, h.Mean(), 1e-9)
	assert.Equal(t, []SizeBucket{
		{UpperBound: 1, Count: 1},
		{UpperBound: 2, Count: 1},
		{UpperBound: 4, Count: 1},
		{UpperBound: 64, Count: 1},
		{UpperBound: 128, Count: 2},
		{UpperBound: 4096, Count: 1},
	}, h.Buckets())
}

func TestDurationHistogram(t *testing.T) {
	h := NewDurationHistogram()
	assert.Zero(t, h.Average())
	h.Observe(20 * time.Millisecond)
	h.Observe(2 * time.Second)
	assert.Equal(t, 1010*time.Millisecond, h.Average())
	assert.Equal(t, []DurationBucket{{Label: "10-100ms", Count: 1}, {Label: "1-10s", Count: 1}}, h.Buckets())
	assert.Equal(t, uint64(2), h.Count())
}
