package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkitti/fileglancer/internal/logger"
)

// FetchFunc produces a fresh value for a slot.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Observer receives cache events. pkg/metrics provides a Prometheus-backed
// implementation; a nil Observer disables reporting.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	FetchError(cache string)
	Invalidated(cache string)
}

// Option configures a Table.
type Option func(*options)

type options struct {
	now      func() time.Time
	observer Observer
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithObserver reports hits, misses, failed fetches and invalidations to o.
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// Table is a set of keyed cache slots sharing one TTL.
//
// Each slot holds at most one Entry plus a generation counter. Invalidate
// clears the entry and bumps the generation; a fetch that was started under
// an older generation still returns its value to its callers but never stores
// it. This guarantees that once Invalidate returns, the next Get for that key
// by the same caller observes a fetch that began after the invalidation.
//
// Concurrent misses on the same key and generation share one fetch. A failed
// fetch leaves the slot as it was (an expired entry is never served) and the
// error is returned unchanged.
//
// Thread Safety:
// All methods are safe for concurrent use. The slot map mutex is never held
// across a fetch.
type Table[K comparable, V any] struct {
	name string
	ttl  time.Duration
	opts options

	group singleflight.Group

	mu    sync.Mutex
	slots map[K]*slot[V]
}

type slot[V any] struct {
	entry *Entry[V]
	gen   uint64
}

// NewTable creates an empty table. name labels log lines and metrics.
func NewTable[K comparable, V any](name string, ttl time.Duration, opts ...Option) *Table[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[K, V]{
		name:  name,
		ttl:   ttl,
		opts:  o,
		slots: make(map[K]*slot[V]),
	}
}

func (t *Table[K, V]) Name() string {
	return t.name
}

func (t *Table[K, V]) TTL() time.Duration {
	return t.ttl
}

// Get returns the cached value for key, calling fetch when the slot is empty
// or expired.
//
// The shared fetch runs detached from any single caller's cancellation so
// that one caller giving up does not fail the others; each caller still
// stops waiting as soon as its own ctx is done. Deadlines for the fetch
// itself belong to the fetcher (e.g. the HTTP client timeout).
func (t *Table[K, V]) Get(ctx context.Context, key K, fetch FetchFunc[V]) (V, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	t.mu.Lock()
	s := t.slotLocked(key)
	if s.entry != nil && !s.entry.IsExpired(t.opts.now()) {
		v := s.entry.Value()
		t.mu.Unlock()
		logger.Debug("cache %s: hit for %v", t.name, key)
		t.observe(Observer.CacheHit)
		return v, nil
	}
	gen := s.gen
	t.mu.Unlock()

	logger.Debug("cache %s: miss for %v (generation %d)", t.name, key, gen)
	t.observe(Observer.CacheMiss)

	fetchCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan(flightKey(key, gen), func() (any, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			t.observe(Observer.FetchError)
			return nil, err
		}
		t.store(key, gen, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

// Peek returns the entry currently stored for key without fetching. Expired
// entries are returned as-is.
func (t *Table[K, V]) Peek(key K) (Entry[V], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots[key]
	if !ok || s.entry == nil {
		return Entry[V]{}, false
	}
	return *s.entry, true
}

// Invalidate discards the entry for key. Fetches already in flight for the
// key will not repopulate it.
func (t *Table[K, V]) Invalidate(key K) {
	t.mu.Lock()
	if s, ok := t.slots[key]; ok {
		s.entry = nil
		s.gen++
	}
	t.mu.Unlock()

	logger.Debug("cache %s: invalidated %v", t.name, key)
	t.observe(Observer.Invalidated)
}

// InvalidateAll discards every entry.
func (t *Table[K, V]) InvalidateAll() {
	t.mu.Lock()
	for _, s := range t.slots {
		s.entry = nil
		s.gen++
	}
	t.mu.Unlock()

	logger.Debug("cache %s: invalidated all slots", t.name)
	t.observe(Observer.Invalidated)
}

// Len returns the number of slots currently holding an entry.
func (t *Table[K, V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, s := range t.slots {
		if s.entry != nil {
			n++
		}
	}
	return n
}

func (t *Table[K, V]) slotLocked(key K) *slot[V] {
	s, ok := t.slots[key]
	if !ok {
		s = &slot[V]{}
		t.slots[key] = s
	}
	return s
}

func (t *Table[K, V]) store(key K, gen uint64, v V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.slotLocked(key)
	if s.gen != gen {
		logger.Debug("cache %s: dropping result for %v from generation %d (now %d)",
			t.name, key, gen, s.gen)
		return
	}
	e := NewEntry(v, t.ttl, t.opts.now())
	s.entry = &e
}

func (t *Table[K, V]) observe(fn func(Observer, string)) {
	if t.opts.observer != nil {
		fn(t.opts.observer, t.name)
	}
}

// flightKey identifies one fetch. Keys must have a unique %v rendering.
func flightKey[K comparable](key K, gen uint64) string {
	return fmt.Sprintf("%v\x00%d", key, gen)
}
