// Package cache provides the time-bounded caching primitives used in front of
// the central server.
//
// Two layers are provided:
//   - Entry: an immutable value stamped with its fetch time and TTL
//   - Table: a keyed set of slots holding entries, with explicit invalidation
//     and coalescing of concurrent fetches for the same key
//
// Refresh is pull-based. Nothing in this package starts goroutines or timers
// of its own; an expired entry is refetched by the next Get that observes it.
package cache

import "time"

// Entry is a cached value together with the instant it was fetched and how
// long it stays fresh. Entries are never mutated; a refresh replaces the
// whole entry.
type Entry[T any] struct {
	value     T
	fetchedAt time.Time
	ttl       time.Duration
}

// NewEntry stamps value with fetchedAt and ttl.
func NewEntry[T any](value T, ttl time.Duration, fetchedAt time.Time) Entry[T] {
	return Entry[T]{value: value, fetchedAt: fetchedAt, ttl: ttl}
}

func (e Entry[T]) Value() T {
	return e.value
}

func (e Entry[T]) FetchedAt() time.Time {
	return e.fetchedAt
}

func (e Entry[T]) TTL() time.Duration {
	return e.ttl
}

// IsExpired reports whether now - fetchedAt >= ttl. A zero TTL is therefore
// always expired.
func (e Entry[T]) IsExpired(now time.Time) bool {
	return now.Sub(e.fetchedAt) >= e.ttl
}
