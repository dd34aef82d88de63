package pipeline

import (
	"context"
	"time"

	"github.com/vidsmith/genmedia-ms-go/internal/generation"
	"github.com/vidsmith/genmedia-ms-go/internal/provider"
)

// Poller drives a submitted job to a terminal state under a deadline. The
// deadline is computed once at submission and threaded through the job as a
// value, so the state machine can be tested with an injected clock.
type Poller struct {
	Interval time.Duration
	MaxWait  time.Duration

	Now   func() time.Time
	Sleep Sleeper
}

func NewPoller(interval, maxWait time.Duration) *Poller {
	return &Poller{
		Interval: interval,
		MaxWait:  maxWait,
		Now:      time.Now,
		Sleep:    sleepCtx,
	}
}

// Deadline returns the absolute deadline for a job submitted now.
func (p *Poller) Deadline() time.Time {
	return p.Now().Add(p.MaxWait)
}

// Await loops until the operation is done or the deadline passes: wait one
// interval, refresh, exit on a terminal response. Crossing the deadline is
// fatal and reported as a TimeoutError; the provider-side job keeps running,
// there is no way to abort it.
func (p *Poller) Await(ctx context.Context, handle string, deadline time.Time,
	poll func(ctx context.Context, handle string) (*provider.Operation, error)) (*provider.Operation, error) {

	start := p.Now()
	for {
		if err := p.Sleep(ctx, p.Interval); err != nil {
			return nil, err
		}
		op, err := poll(ctx, handle)
		if err != nil {
			return nil, err
		}
		if op != nil && op.Done {
			return op, nil
		}
		if !p.Now().Before(deadline) {
			return nil, &generation.TimeoutError{Elapsed: p.Now().Sub(start)}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
