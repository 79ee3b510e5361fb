// Package concurrency wires pkg/sync's primitives (Limiter, Pool) and
// golang.org/x/sync/errgroup into the shapes spec.md §5 and §9 call for: a
// counting semaphore gating every LLM fan-out, a bounded Group for
// independent per-item tasks, and pools for "await all" vs. "iterate as
// they complete" dispatch.
package concurrency

import (
	"context"

	tsync "github.com/lynxscreen/screenpipe/pkg/sync"
)

// Limiter bounds concurrent LLM calls to LLM_CONCURRENCY_LIMIT (spec.md
// §5). It wraps pkg/sync.Limiter and adds context-aware acquisition so
// cancellation of the outer request propagates to queued fan-out tasks
// (spec.md §5, "Cancellation and timeouts").
type Limiter struct {
	inner *tsync.Limiter
}

// NewLimiter creates a Limiter allowing at most max concurrent holders.
func NewLimiter(max int) *Limiter {
	return &Limiter{inner: tsync.NewLimiter(max)}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire() {
	l.inner.Acquire()
}

// Release returns a slot to the limiter.
func (l *Limiter) Release() {
	l.inner.Release()
}

// AcquireCtx blocks until a slot is available or ctx is done, whichever
// comes first. If ctx is done before a slot frees up, it returns ctx.Err()
// and does not hold a slot.
func (l *Limiter) AcquireCtx(ctx context.Context) error {
	acquired := make(chan struct{})
	go func() {
		l.inner.Acquire()
		close(acquired)
	}()
	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		// The goroutine above will still acquire eventually and leak a
		// held slot forever unless we give it back; release it once it
		// lands.
		go func() {
			<-acquired
			l.inner.Release()
		}()
		return ctx.Err()
	}
}
