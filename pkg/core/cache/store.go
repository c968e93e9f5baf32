// Package cache holds pages of remote collections keyed by collection name
// and view state, with request deduplication and optimistic mutation.
package cache

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"golang.org/x/sync/singleflight"
)

var ErrClosed = errors.New("cache closed")

// Key identifies one cached page
type Key struct {
	Collection string
	View       string
}

func (k Key) String() string {
	return k.Collection + "?" + k.View
}

type Config struct {
	// DedupeInterval is how long a successful fetch satisfies Revalidate
	// calls for the same key without going back to the API.
	DedupeInterval time.Duration
	Logger         *log.Logger
}

// Stats are simple counters for cache behavior
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Fetches   int64 `json:"fetches"`
	Deduped   int64 `json:"deduped"`
	Mutations int64 `json:"mutations"`
	Rollbacks int64 `json:"rollbacks"`
	Size      int   `json:"size"`
}

// Store owns every cached entry. Views only ever hold a subscription.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	closed  bool
	nextSub int

	group  singleflight.Group
	dedupe time.Duration
	now    func() time.Time
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// counters
	hits      int64
	misses    int64
	fetches   int64
	deduped   int64
	mutations int64
	rollbacks int64
}

type entry struct {
	view domain.ViewState
	data any // domain.ListResponse[T] of the owning collection
	err  error

	stale   bool
	loading bool

	// epoch bumps on every write that must win over fetches already in
	// flight (optimistic writes, rollbacks, invalidation).
	epoch        uint64
	loadingEpoch uint64
	fetchedAt    time.Time

	subs map[int]chan struct{}
}

func NewStore(c Config) *Store {
	if c.DedupeInterval == 0 {
		c.DedupeInterval = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		entries: make(map[Key]*entry),
		dedupe:  c.DedupeInterval,
		now:     time.Now,
		logger:  c.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Invalidate marks every entry of a collection stale; the next read of each
// entry goes back to the API.
func (s *Store) Invalidate(collection string) {
	s.mu.Lock()
	var notify []chan struct{}
	for k, e := range s.entries {
		if k.Collection != collection {
			continue
		}
		e.stale = true
		e.epoch++
		notify = appendSubs(notify, e)
	}
	signal(notify)
	s.mu.Unlock()
}

// Close cancels background fetches and waits for them to return. Results
// that arrive afterwards are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	for _, e := range s.entries {
		for id, ch := range e.subs {
			close(ch)
			delete(e.subs, id)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Stats() Stats {
	return Stats{
		Hits:      atomic.LoadInt64(&s.hits),
		Misses:    atomic.LoadInt64(&s.misses),
		Fetches:   atomic.LoadInt64(&s.fetches),
		Deduped:   atomic.LoadInt64(&s.deduped),
		Mutations: atomic.LoadInt64(&s.mutations),
		Rollbacks: atomic.LoadInt64(&s.rollbacks),
		Size:      s.Len(),
	}
}

// lookup returns the entry for key, creating an empty one. Caller holds mu.
func (s *Store) lookup(key Key, view domain.ViewState) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{view: view.Clone()}
		s.entries[key] = e
	}
	return e
}

func (e *entry) needsFetch() bool {
	if e.loading && e.loadingEpoch == e.epoch {
		return false
	}
	return e.stale || (e.data == nil && e.err == nil)
}

func flightKey(key Key, epoch uint64) string {
	return key.String() + "#" + strconv.FormatUint(epoch, 10)
}

func appendSubs(dst []chan struct{}, e *entry) []chan struct{} {
	for _, ch := range e.subs {
		dst = append(dst, ch)
	}
	return dst
}

// signal wakes subscribers without blocking; a pending wake-up is enough.
// Caller holds s.mu so that cancel and Close cannot close a channel mid-send.
func signal(chans []chan struct{}) {
	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
