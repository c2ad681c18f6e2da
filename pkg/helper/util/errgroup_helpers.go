// Package util holds small concurrency helpers shared across the copy,
// signature, and sync engine packages.
package util

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// LimitedErrGroup wraps errgroup.Group with a semaphore bounding how many
// of its goroutines run at once, so a per-chunk or per-file fan-out can't
// spawn more concurrent work than the caller's worker count allows.
type LimitedErrGroup struct {
	group *errgroup.Group
	ctx   context.Context
	sem   *semaphore.Weighted
}

// NewLimitedErrGroup creates an error group capped at maxConcurrency
// simultaneous goroutines. maxConcurrency <= 0 means unlimited.
func NewLimitedErrGroup(ctx context.Context, maxConcurrency int) *LimitedErrGroup {
	g, ctx := errgroup.WithContext(ctx)

	var sem *semaphore.Weighted
	if maxConcurrency > 0 {
		sem = semaphore.NewWeighted(int64(maxConcurrency))
	}

	return &LimitedErrGroup{group: g, ctx: ctx, sem: sem}
}

// Go runs f in a new goroutine, blocking until a concurrency slot is free.
func (g *LimitedErrGroup) Go(f func() error) {
	g.group.Go(func() error {
		if g.sem == nil {
			return f()
		}
		if err := g.sem.Acquire(g.ctx, 1); err != nil {
			return err
		}
		defer g.sem.Release(1)
		return f()
	})
}

// Wait blocks until every goroutine started with Go has returned, and
// reports the first non-nil error, if any.
func (g *LimitedErrGroup) Wait() error {
	return g.group.Wait()
}
