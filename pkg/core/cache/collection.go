package cache

import (
	"context"
	"sync/atomic"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// Fetcher loads one page of a collection from the API
type Fetcher[T any] func(ctx context.Context, view domain.ViewState) (*domain.ListResponse[T], error)

// Snapshot is the state of one entry at the time of a Read
type Snapshot[T any] struct {
	Data      *domain.ListResponse[T]
	Err       error
	IsLoading bool
}

// Collection is a typed view of the store for one named collection
type Collection[T any] struct {
	store *Store
	name  string
	fetch Fetcher[T]
}

func NewCollection[T any](store *Store, name string, fetch Fetcher[T]) *Collection[T] {
	return &Collection[T]{store: store, name: name, fetch: fetch}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) key(view domain.ViewState) Key {
	return Key{Collection: c.name, View: view.Key()}
}

// Read returns the current state without blocking. A missing or stale entry
// gets a background fetch; subscribers are signalled when it lands.
func (c *Collection[T]) Read(view domain.ViewState) Snapshot[T] {
	s := c.store
	key := c.key(view)

	s.mu.Lock()
	e := s.lookup(key, view)
	if e.needsFetch() && !s.closed {
		c.startFetch(key, e)
	}
	snap := Snapshot[T]{Err: e.err, IsLoading: e.loading}
	if data, ok := e.data.(domain.ListResponse[T]); ok {
		clone := data.Clone()
		snap.Data = &clone
		atomic.AddInt64(&s.hits, 1)
	} else {
		atomic.AddInt64(&s.misses, 1)
	}
	s.mu.Unlock()
	return snap
}

// Peek returns cached data without triggering a fetch
func (c *Collection[T]) Peek(view domain.ViewState) (domain.ListResponse[T], bool) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c.key(view)]
	if !ok {
		return domain.ListResponse[T]{}, false
	}
	data, ok := e.data.(domain.ListResponse[T])
	if !ok {
		return domain.ListResponse[T]{}, false
	}
	return data.Clone(), true
}

// Load is a blocking read-through: fresh cached data is returned as is,
// otherwise the page is fetched (sharing any identical fetch in flight).
// Cancelling ctx abandons the wait; the fetch still settles into the cache.
func (c *Collection[T]) Load(ctx context.Context, view domain.ViewState) (*domain.ListResponse[T], error) {
	s := c.store
	key := c.key(view)

	s.mu.Lock()
	e := s.lookup(key, view)
	if data, ok := e.data.(domain.ListResponse[T]); ok && !e.stale {
		s.mu.Unlock()
		atomic.AddInt64(&s.hits, 1)
		clone := data.Clone()
		return &clone, nil
	}
	atomic.AddInt64(&s.misses, 1)
	return c.await(ctx, key, e)
}

// Revalidate refetches the page unless a fetch for the same key succeeded
// within the dedupe interval and nothing invalidated it since.
func (c *Collection[T]) Revalidate(ctx context.Context, view domain.ViewState) (*domain.ListResponse[T], error) {
	s := c.store
	key := c.key(view)

	s.mu.Lock()
	e := s.lookup(key, view)
	if data, ok := e.data.(domain.ListResponse[T]); ok && !e.stale && s.now().Sub(e.fetchedAt) < s.dedupe {
		s.mu.Unlock()
		atomic.AddInt64(&s.deduped, 1)
		clone := data.Clone()
		return &clone, nil
	}
	return c.await(ctx, key, e)
}

// Invalidate marks every page of this collection stale
func (c *Collection[T]) Invalidate() {
	c.store.Invalidate(c.name)
}

// Subscribe returns a channel signalled whenever the entry for view changes.
// The channel is closed when the store closes; call cancel to stop.
func (c *Collection[T]) Subscribe(view domain.ViewState) (<-chan struct{}, func()) {
	s := c.store
	key := c.key(view)
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	e := s.lookup(key, view)
	if e.subs == nil {
		e.subs = make(map[int]chan struct{})
	}
	id := s.nextSub
	s.nextSub++
	e.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if e, ok := s.entries[key]; ok {
			if _, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
		}
	}
	return ch, cancel
}

// startFetch kicks off a background fetch. Caller holds s.mu.
func (c *Collection[T]) startFetch(key Key, e *entry) {
	s := c.store
	e.loading = true
	e.loadingEpoch = e.epoch
	epoch := e.epoch
	view := e.view
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := <-s.group.DoChan(flightKey(key, epoch), c.flight(key, view, epoch))
		if res.Shared {
			atomic.AddInt64(&s.deduped, 1)
		}
	}()
}

// await joins (or starts) the fetch for key and waits for it. Caller holds
// s.mu; it is released here.
func (c *Collection[T]) await(ctx context.Context, key Key, e *entry) (*domain.ListResponse[T], error) {
	s := c.store
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	e.loading = true
	e.loadingEpoch = e.epoch
	epoch := e.epoch
	view := e.view
	s.mu.Unlock()

	ch := s.group.DoChan(flightKey(key, epoch), c.flight(key, view, epoch))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			atomic.AddInt64(&s.deduped, 1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.(domain.ListResponse[T]).Clone()
		return &data, nil
	}
}

// flight builds the shared fetch for one key and epoch. It runs against the
// store's context so one caller giving up does not fail the others.
func (c *Collection[T]) flight(key Key, view domain.ViewState, epoch uint64) func() (interface{}, error) {
	return func() (interface{}, error) {
		s := c.store
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		atomic.AddInt64(&s.fetches, 1)
		resp, err := c.fetch(s.ctx, view)
		if err == nil && resp == nil {
			resp = &domain.ListResponse[T]{Items: []T{}}
		}
		c.settle(key, epoch, resp, err)
		if err != nil {
			return nil, err
		}
		return *resp, nil
	}
}

// settle stores a fetch result unless a newer write superseded it
func (c *Collection[T]) settle(key Key, epoch uint64, resp *domain.ListResponse[T], err error) {
	s := c.store
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	if e.loadingEpoch == epoch {
		e.loading = false
	}
	if e.epoch != epoch {
		// an optimistic write, rollback or invalidation happened meanwhile
		s.mu.Unlock()
		return
	}
	if err != nil {
		// keep whatever data we had; only an explicit revalidate retries
		e.err = err
		e.stale = false
		s.logger.Printf("cache: fetch %s failed: %v", key, err)
	} else {
		e.data = resp.Clone()
		e.err = nil
		e.stale = false
		e.fetchedAt = s.now()
	}
	notify := appendSubs(nil, e)
	signal(notify)
	s.mu.Unlock()
}

// Find returns the first cached item matching pred across every page of the
// collection. It never fetches.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if k.Collection != c.name {
			continue
		}
		data, ok := e.data.(domain.ListResponse[T])
		if !ok {
			continue
		}
		for _, item := range data.Items {
			if pred(item) {
				return item, true
			}
		}
	}
	var zero T
	return zero, false
}
