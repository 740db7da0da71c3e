// Package cache implements a read-through query cache with optimistic
// mutations. Reads are keyed by resource and parent; a fresh entry is served
// directly, a stale one is served immediately while a background revalidation
// refreshes it, and a miss fetches synchronously. Mutations patch the cached
// values before the request is sent and roll the patch back if it fails.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/apiarist/hivekeep/internal/logging"
)

// Key identifies a cached query.
type Key struct {
	Resource string
	Parent   string
}

func (k Key) String() string {
	return k.Resource + "/" + k.Parent
}

// Fetch loads the authoritative value for a key.
type Fetch[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
	stale     bool
}

// Query caches values of one type across many keys.
type Query[V any] struct {
	ttl time.Duration
	log logging.Logger

	mu      sync.Mutex
	entries map[Key]*entry[V]
	group   singleflight.Group
}

type Option[V any] func(*Query[V])

// WithTTL sets how long a fetched value counts as fresh.
func WithTTL[V any](d time.Duration) Option[V] {
	return func(q *Query[V]) { q.ttl = d }
}

func WithLogger[V any](log logging.Logger) Option[V] {
	return func(q *Query[V]) { q.log = log }
}

func NewQuery[V any](opts ...Option[V]) *Query[V] {
	q := &Query[V]{
		ttl:     30 * time.Second,
		log:     logging.Nop(),
		entries: make(map[Key]*entry[V]),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Read returns the cached value for key if one exists. A stale hit still
// returns the cached value; the refetch happens in the background so the
// caller never waits on data it already has. Only a miss blocks on fetch.
func (q *Query[V]) Read(ctx context.Context, key Key, fetch Fetch[V]) (V, error) {
	q.mu.Lock()
	if e, ok := q.entries[key]; ok {
		v := e.value
		fresh := !e.stale && time.Since(e.fetchedAt) < q.ttl
		q.mu.Unlock()
		if !fresh {
			q.revalidate(ctx, key, fetch)
		}
		return v, nil
	}
	q.mu.Unlock()

	res, err, _ := q.group.Do(key.String(), func() (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	v := res.(V)
	q.store(key, v)
	return v, nil
}

// revalidate refreshes key without blocking the caller. Concurrent stale
// reads of the same key collapse into a single fetch. The fetch survives the
// caller's context so a short-lived request cannot abort it midway.
func (q *Query[V]) revalidate(ctx context.Context, key Key, fetch Fetch[V]) {
	bg := context.WithoutCancel(ctx)
	go func() {
		res, err, _ := q.group.Do(key.String(), func() (any, error) {
			return fetch(bg)
		})
		if err != nil {
			// The stale value stays served until a later refetch succeeds.
			q.log.Warn(bg, "cache revalidation failed", "key", key.String(), "error", err)
			return
		}
		q.store(key, res.(V))
	}()
}

func (q *Query[V]) store(key Key, v V) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = &entry[V]{value: v, fetchedAt: time.Now()}
}

// Peek reports the cached value without touching freshness.
func (q *Query[V]) Peek(key Key) (V, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.entries[key]; ok {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Invalidate marks keys stale; the next Read serves the old value and
// refetches in the background. Unknown keys are ignored.
func (q *Query[V]) Invalidate(keys ...Key) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, key := range keys {
		if e, ok := q.entries[key]; ok {
			e.stale = true
		}
	}
}

// InvalidateAll marks every cached entry stale.
func (q *Query[V]) InvalidateAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		e.stale = true
	}
}

// Drop removes keys entirely so the next Read fetches synchronously.
func (q *Query[V]) Drop(keys ...Key) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, key := range keys {
		delete(q.entries, key)
	}
}
