// Package workerpool offloads CPU-heavy work (chunk decompression, palette
// decode) off per-connection goroutines, per §5: "CPU-heavy work is
// offloaded to a bounded worker pool so the scheduler isn't blocked."
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent CPU-heavy task execution to a fixed weight,
// grounded on golang.org/x/sync/semaphore (already pulled into the example
// pool's dependency graph by udisondev/la2go and go.minekube.com/gate's
// golang.org/x/sync usage).
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a pool that runs at most size tasks concurrently.
func New(size int64) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(size)}
}

// Submit runs fn once a slot is available, blocking until either a slot
// frees up or ctx is cancelled. The result is delivered on the returned
// channel; Submit itself never blocks the caller past ctx's deadline.
func (p *Pool) Submit(ctx context.Context, fn func() (any, error)) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			out <- Result{Err: err}
			return
		}
		defer p.sem.Release(1)
		val, err := fn()
		out <- Result{Value: val, Err: err}
	}()
	return out
}

// Result is the outcome of a Submit call.
type Result struct {
	Value any
	Err   error
}
