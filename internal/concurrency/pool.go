package concurrency

import (
	"github.com/gammazero/workerpool"
	"github.com/panjf2000/ants/v2"
	concpool "github.com/sourcegraph/conc/pool"

	tsync "github.com/lynxscreen/screenpipe/pkg/sync"
)

// Pool is the common submission surface for every pool shape this package
// wires, re-exported from pkg/sync.Pool so callers never import pkg/sync
// directly.
type Pool = tsync.Pool

// NewBoundedPool returns an ants-backed pool sized to size, used for the
// full-screen fan-out (spec.md §5, §9). Close must be called
// when the pool is no longer needed; the returned func does that.
func NewBoundedPool(size int) (Pool, func(), error) {
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, nil, err
	}
	return tsync.PoolOfAnts(p), p.Release, nil
}

// NewFIFOPool returns a gammazero/workerpool-backed pool, used where
// ordered draining matters (the batch-of-3 structuring calls in Phase S,
// spec.md §4.2). Close must be called to stop the underlying workers.
func NewFIFOPool(size int) (Pool, func()) {
	p := workerpool.New(size)
	return tsync.PoolOfWorkerpool(p), p.StopWait
}

// NewStreamingPool returns a sourcegraph/conc-backed pool, used by the
// streaming emitter (spec.md §9: structured-concurrency fan-out whose
// panics must not take down the request). Wait blocks until every
// submitted task completes; conc itself re-panics any recovered panic from
// a worker on the Wait() call, propagating it to the caller's goroutine.
func NewStreamingPool() (Pool, func()) {
	p := concpool.New()
	return tsync.PoolOfConc(p), p.Wait
}
