package main

import (
	"bufio"
	"context"
	"errors"
	"hash"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoangsonww/hashsplit/internal/boundary"
	"github.com/hoangsonww/hashsplit/internal/chunk"
	"github.com/hoangsonww/hashsplit/internal/compression"
	"github.com/hoangsonww/hashsplit/internal/crypto"
	hserrors "github.com/hoangsonww/hashsplit/internal/errors"
)

const readBufferSize = 256 * 1024

// chunkRecord is the printable form of one chunk
type chunkRecord struct {
	Offset int64          `json:"offset"`
	Length int            `json:"length"`
	Kind   boundary.Kind  `json:"kind"`
	Level  uint32         `json:"level"`
	Digest *crypto.Digest `json:"digest,omitempty"`
}

// input is an opened, decompressed source together with a digest of
// everything read through it
type input struct {
	name   string
	closer io.Closer
	hasher hash.Hash
	r      io.Reader
	codec  compression.Type
	size   int64
}

func (a *app) open(ctx context.Context, name string) (*input, error) {
	var raw io.ReadCloser
	if name == "-" {
		raw = io.NopCloser(a.in)
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, hserrors.NewInputUnreadableError(name, err)
		}
		raw = f
	}

	dec, err := compression.NewReader(a.codec, a.limiter.Reader(ctx, raw))
	if err != nil {
		raw.Close()
		return nil, hserrors.NewInputCorruptedError(name, err)
	}

	h := crypto.NewHasher()
	return &input{
		name:   name,
		closer: closeBoth{dec, raw},
		hasher: h,
		r:      io.TeeReader(dec, h),
		codec:  a.codec,
	}, nil
}

func (in *input) Close() error {
	return in.closer.Close()
}

// Digest returns the digest of the decompressed bytes read so far
func (in *input) Digest() crypto.Digest {
	var d crypto.Digest
	copy(d[:], in.hasher.Sum(nil))
	return d
}

// readError classifies a failure while pulling bytes from the input
func (in *input) readError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return hserrors.NewInterruptedError(err)
	}
	if in.codec != compression.None {
		return hserrors.NewInputCorruptedError(in.name, err)
	}
	return hserrors.NewInputUnreadableError(in.name, err)
}

type closeBoth struct {
	outer, inner io.Closer
}

func (c closeBoth) Close() error {
	err := c.outer.Close()
	if ierr := c.inner.Close(); err == nil {
		err = ierr
	}
	return err
}

// eachChunk splits one input and hands every chunk to fn. With inMemory the
// input is read fully and split without copying.
func (a *app) eachChunk(ctx context.Context, in *input, inMemory bool, fn func(chunk.Resumable[any]) error) error {
	start := time.Now()
	traceChunks := a.log.Enabled("debug")

	var it chunk.Iterator[any]
	if inMemory {
		data, err := io.ReadAll(in.r)
		if err != nil {
			return in.readError(err)
		}
		it = a.engine.Spans(data)
	} else {
		it = a.engine.Splits(bufio.NewReaderSize(in.r, readBufferSize))
	}

	for {
		if err := ctx.Err(); err != nil {
			return hserrors.NewInterruptedError(err)
		}
		c, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in.readError(err)
		}
		in.size += int64(c.Len())
		a.metrics.RecordChunk(c.Kind, c.Len())
		if traceChunks {
			a.log.WithFields(map[string]interface{}{
				"file":   in.name,
				"offset": c.Offset,
				"length": c.Len(),
				"kind":   c.Kind.String(),
				"level":  c.Level,
			}).Debug("chunk")
		}
		if err := fn(c); err != nil {
			return err
		}
	}

	a.metrics.RecordFile(time.Since(start))
	return nil
}

// eachExtent reports cut points only; chunk bytes are never retained
func (a *app) eachExtent(ctx context.Context, in *input, fn func(chunkRecord) error) error {
	start := time.Now()
	extents := a.engine.Extents(bufio.NewReaderSize(in.r, readBufferSize))

	for {
		if err := ctx.Err(); err != nil {
			return hserrors.NewInterruptedError(err)
		}
		x, err := extents.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return in.readError(err)
		}
		rec := chunkRecord{Offset: in.size, Length: x.Length, Kind: x.Kind, Level: x.Level}
		in.size += int64(x.Length)
		a.metrics.RecordChunk(x.Kind, x.Length)
		if err := fn(rec); err != nil {
			return err
		}
	}

	a.metrics.RecordFile(time.Since(start))
	return nil
}

// forEachFile runs fn for every name on at most cfg.Workers goroutines
func (a *app) forEachFile(ctx context.Context, names []string, fn func(ctx context.Context, i int, in *input) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			in, err := a.open(ctx, name)
			if err != nil {
				a.metrics.RecordFileFailed()
				return err
			}
			defer in.Close()

			if err := fn(ctx, i, in); err != nil {
				a.metrics.RecordFileFailed()
				a.log.WithField("file", name).WithError(err).Debug("chunking stopped")
				return err
			}
			a.log.WithFields(map[string]interface{}{
				"file":  name,
				"bytes": in.size,
			}).Debug("file chunked")
			return nil
		})
	}

	err := g.Wait()
	if failed := a.metrics.FilesFailed.Load(); failed > 0 {
		a.log.WithFields(map[string]interface{}{
			"failed": failed,
			"files":  len(names),
		}).Warn("inputs failed")
	}
	return err
}

func record(c chunk.Resumable[any], withDigest bool) chunkRecord {
	rec := chunkRecord{Offset: c.Offset, Length: c.Len(), Kind: c.Kind, Level: c.Level}
	if withDigest {
		d := crypto.Hash(c.Data)
		rec.Digest = &d
	}
	return rec
}
