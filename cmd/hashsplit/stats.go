package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/compression"
	"github.com/hoangsonww/hashsplit/internal/crypto"
	"github.com/hoangsonww/hashsplit/internal/monitoring"
)

// dedupIndex counts distinct chunk contents across all inputs
type dedupIndex struct {
	mu          sync.Mutex
	seen        map[crypto.Digest]struct{}
	uniqueBytes int64

	compressor *compression.Compressor
	compressed atomic.Int64
}

func (d *dedupIndex) add(data []byte) error {
	digest := crypto.Hash(data)

	d.mu.Lock()
	_, dup := d.seen[digest]
	if !dup {
		d.seen[digest] = struct{}{}
		d.uniqueBytes += int64(len(data))
	}
	d.mu.Unlock()

	if dup || d.compressor == nil {
		return nil
	}
	n, err := d.compressor.CompressedSize(data)
	if err != nil {
		return err
	}
	d.compressed.Add(int64(n))
	return nil
}

type fileStats struct {
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	Chunks int    `json:"chunks"`
}

type statsReport struct {
	Engine          string                  `json:"engine"`
	Files           []fileStats             `json:"files"`
	Bytes           uint64                  `json:"bytes"`
	Chunks          uint64                  `json:"chunks"`
	BoundaryChunks  uint64                  `json:"boundary_chunks"`
	CappedChunks    uint64                  `json:"capped_chunks"`
	EofChunks       uint64                  `json:"eof_chunks"`
	MinChunk        int                     `json:"min_chunk"`
	MeanChunk       float64                 `json:"mean_chunk"`
	MaxChunk        int                     `json:"max_chunk"`
	UniqueChunks    int                     `json:"unique_chunks"`
	UniqueBytes     int64                   `json:"unique_bytes"`
	DedupRatio      float64                 `json:"dedup_ratio"`
	CompressedBytes int64                   `json:"compressed_bytes,omitempty"`
	Histogram       []monitoring.SizeBucket `json:"histogram"`

	MeanFileTime time.Duration               `json:"mean_file_time_ns"`
	FileTime     []monitoring.DurationBucket `json:"file_time"`
}

func newStatsCommand(a *app) *cobra.Command {
	var compressed, inMemory bool

	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Summarize chunk sizes and deduplication across inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index := &dedupIndex{seen: make(map[crypto.Digest]struct{})}
			if compressed {
				c, err := compression.DefaultCompressor()
				if err != nil {
					return err
				}
				defer c.Close()
				index.compressor = c
			}

			files := make([]fileStats, len(args))
			err := a.forEachFile(cmd.Context(), args, func(ctx context.Context, i int, in *input) error {
				files[i].Name = in.name
				err := a.eachChunk(ctx, in, inMemory, func(c chunk.Resumable[any]) error {
					files[i].Chunks++
					return index.add(c.Data)
				})
				files[i].Size = in.size
				return err
			})
			if err != nil {
				return err
			}

			rep := a.statsReport(files, index)
			a.log.WithFields(map[string]interface{}{
				"files":        len(files),
				"unique_bytes": rep.UniqueBytes,
			}).Info("stats complete")

			if a.jsonOutput() {
				return a.emitJSON(rep)
			}
			return a.emitText(func(w io.Writer) { printStats(w, rep) })
		},
	}

	cmd.Flags().BoolVar(&compressed, "compressed", false, "also estimate the zstd size of the unique chunks")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "read each input fully and split without copying")
	return cmd
}

func (a *app) statsReport(files []fileStats, index *dedupIndex) statsReport {
	m := a.metrics
	rep := statsReport{
		Engine:          a.engine.String(),
		Files:           files,
		Bytes:           m.BytesProcessed.Load(),
		Chunks:          m.Chunks.Load(),
		BoundaryChunks:  m.BoundaryChunks.Load(),
		CappedChunks:    m.CappedChunks.Load(),
		EofChunks:       m.EofChunks.Load(),
		MinChunk:        m.ChunkSizes.Min(),
		MeanChunk:       m.ChunkSizes.Mean(),
		MaxChunk:        m.ChunkSizes.Max(),
		UniqueChunks:    len(index.seen),
		UniqueBytes:     index.uniqueBytes,
		CompressedBytes: index.compressed.Load(),
		Histogram:       m.ChunkSizes.Buckets(),
		MeanFileTime:    m.FileDuration.Average(),
		FileTime:        m.FileDuration.Buckets(),
	}
	if rep.UniqueBytes > 0 {
		rep.DedupRatio = float64(rep.Bytes) / float64(rep.UniqueBytes)
	}
	return rep
}

func printStats(w io.Writer, rep statsReport) {
	fmt.Fprintf(w, "engine\t%s\n", rep.Engine)
	for _, f := range rep.Files {
		fmt.Fprintf(w, "file\t%s\t%s\t%d chunks\n", f.Name, humanize.IBytes(uint64(f.Size)), f.Chunks)
	}
	fmt.Fprintf(w, "bytes\t%s\n", humanize.IBytes(rep.Bytes))
	fmt.Fprintf(w, "chunks\t%s (boundary %d, capped %d, eof %d)\n",
		humanize.Comma(int64(rep.Chunks)), rep.BoundaryChunks, rep.CappedChunks, rep.EofChunks)
	fmt.Fprintf(w, "chunk size\tmin %s\tmean %s\tmax %s\n",
		humanize.IBytes(uint64(rep.MinChunk)), humanize.IBytes(uint64(rep.MeanChunk)), humanize.IBytes(uint64(rep.MaxChunk)))
	fmt.Fprintf(w, "unique\t%d chunks\t%s\tratio %.2f\n", rep.UniqueChunks, humanize.IBytes(uint64(rep.UniqueBytes)), rep.DedupRatio)
	if rep.CompressedBytes > 0 {
		fmt.Fprintf(w, "compressed\t%s\n", humanize.IBytes(uint64(rep.CompressedBytes)))
	}
	for _, b := range rep.Histogram {
		fmt.Fprintf(w, "<= %s\t%d\n", humanize.IBytes(uint64(b.UpperBound)), b.Count)
	}
	fmt.Fprintf(w, "file time\tmean %s\n", rep.MeanFileTime.Round(time.Microsecond))
	for _, b := range rep.FileTime {
		fmt.Fprintf(w, "%s\t%d\n", b.Label, b.Count)
	}
}
