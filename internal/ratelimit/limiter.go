package ratelimit

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Limiter caps the combined byte rate of every reader it wraps
type Limiter struct {
	limiter *rate.Limiter
	burst   int
}

// NewLimiter returns a limiter for bytesPerSec, or nil when bytesPerSec is not
// positive. A nil *Limiter does not throttle.
func NewLimiter(bytesPerSec int) *Limiter {
	if bytesPerSec <= 0 {
		return nil
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec),
		burst:   bytesPerSec,
	}
}

// Reader wraps r so that its reads wait for the limiter. Waiting stops with
// ctx's error when ctx is done.
func (l *Limiter) Reader(ctx context.Context, r io.Reader) io.Reader {
	if l == nil {
		return r
	}
	return &reader{ctx: ctx, r: r, l: l}
}

type reader struct {
	ctx context.Context
	r   io.Reader
	l   *Limiter
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) > r.l.burst {
		p = p[:r.l.burst]
	}
	if err := r.l.limiter.WaitN(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
