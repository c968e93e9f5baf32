package cache

import (
	"context"
	"sync/atomic"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// MutateOptions tunes what happens after the remote call succeeds
type MutateOptions[T, R any] struct {
	// Reconcile folds the server's result into each optimistically patched
	// page. Nil keeps the optimistic value.
	Reconcile func(page domain.ListResponse[T], result R) domain.ListResponse[T]
	// Revalidate marks the collection stale once the call succeeds
	Revalidate bool
}

// MutateOptimistic applies transform to every cached page of the collection,
// then runs remote. The transform lands before remote is dispatched. On
// failure each page is restored to its snapshot, the collection is marked
// stale and the remote error is returned unchanged.
//
// Concurrent mutations on the same pages are last-settled-wins: a rollback
// restores whatever the page held when that mutation started.
func MutateOptimistic[T, R any](
	ctx context.Context,
	c *Collection[T],
	transform func(page domain.ListResponse[T]) domain.ListResponse[T],
	remote func(ctx context.Context) (R, error),
	opts MutateOptions[T, R],
) (R, error) {
	s := c.store
	atomic.AddInt64(&s.mutations, 1)

	snapshots := make(map[Key]domain.ListResponse[T])

	s.mu.Lock()
	var notify []chan struct{}
	for k, e := range s.entries {
		if k.Collection != c.name {
			continue
		}
		data, ok := e.data.(domain.ListResponse[T])
		if !ok {
			continue
		}
		snapshots[k] = data
		e.data = transform(data.Clone())
		e.epoch++
		notify = appendSubs(notify, e)
	}
	signal(notify)
	s.mu.Unlock()

	result, err := remote(ctx)
	if err != nil {
		atomic.AddInt64(&s.rollbacks, 1)
		s.mu.Lock()
		notify = notify[:0]
		for k, e := range s.entries {
			if k.Collection != c.name {
				continue
			}
			if snap, ok := snapshots[k]; ok {
				e.data = snap
			}
			e.stale = true
			e.epoch++
			notify = appendSubs(notify, e)
		}
		signal(notify)
		s.mu.Unlock()
		return result, err
	}

	if opts.Reconcile == nil && !opts.Revalidate {
		return result, nil
	}

	s.mu.Lock()
	notify = notify[:0]
	for k, e := range s.entries {
		if k.Collection != c.name {
			continue
		}
		if opts.Reconcile != nil {
			if _, patched := snapshots[k]; patched {
				if data, ok := e.data.(domain.ListResponse[T]); ok {
					e.data = opts.Reconcile(data.Clone(), result)
				}
			}
		}
		if opts.Revalidate {
			e.stale = true
		}
		e.epoch++
		notify = appendSubs(notify, e)
	}
	signal(notify)
	s.mu.Unlock()
	return result, nil
}
