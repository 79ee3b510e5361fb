package concurrency

import "golang.org/x/sync/errgroup"

// Group bounds a fan-out of independent, never-cancel-on-error tasks to a
// fixed concurrency, via golang.org/x/sync/errgroup's SetLimit. Unlike
// errgroup.WithContext, Group does not derive or cancel a context on the
// first error: Phase E's per-asset extraction (spec.md §4.2) collects one
// failure per item rather than aborting the rest of the batch, so Go's
// func must report its own per-item failure and still return nil.
type Group struct {
	g *errgroup.Group
}

// NewGroup returns a Group allowing at most max goroutines running
// concurrently via Go.
func NewGroup(max int) *Group {
	g := &errgroup.Group{}
	g.SetLimit(max)
	return &Group{g: g}
}

// Go schedules fn to run once a slot is available, blocking the caller
// until one frees up if the limit is already reached.
func (b *Group) Go(fn func()) {
	b.g.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every scheduled fn has returned.
func (b *Group) Wait() {
	_ = b.g.Wait()
}
