package cache

import "context"

// Mutation describes a write that should be visible in the cache before the
// backend confirms it. Optimistic patches the cached value for each key; Call
// performs the actual request. If Call fails every patched key is restored to
// its pre-mutation snapshot. If it succeeds the keys are marked stale so the
// next read picks up the server's version of events.
type Mutation[V, R any] struct {
	Keys []Key

	// Optimistic receives the current cached value (ok reports whether one
	// exists) and returns the patched value. Returning false leaves the
	// entry untouched.
	Optimistic func(key Key, cur V, ok bool) (V, bool)

	Call func(ctx context.Context) (R, error)

	// Confirm, if set, replaces the provisional value with one derived from
	// Call's result before the keys are marked stale. Without it the
	// optimistic value stands until the background refetch lands.
	Confirm func(key Key, cur V, ok bool, result R) (V, bool)

	// OnSettle, if set, runs after the rollback or invalidation, with the
	// outcome of Call.
	OnSettle func(result R, err error)
}

type snapshot[V any] struct {
	key     Key
	value   V
	existed bool
}

// Mutate applies m against q. The returned result and error are Call's.
func Mutate[V, R any](ctx context.Context, q *Query[V], m Mutation[V, R]) (R, error) {
	var snapshots []snapshot[V]
	if m.Optimistic != nil {
		snapshots = q.patch(m.Keys, m.Optimistic)
	}

	result, err := m.Call(ctx)
	if err != nil {
		q.restore(snapshots)
	} else {
		if m.Confirm != nil {
			q.patch(m.Keys, func(key Key, cur V, ok bool) (V, bool) {
				return m.Confirm(key, cur, ok, result)
			})
		}
		q.Invalidate(m.Keys...)
	}

	if m.OnSettle != nil {
		m.OnSettle(result, err)
	}
	return result, err
}

func (q *Query[V]) patch(keys []Key, apply func(key Key, cur V, ok bool) (V, bool)) []snapshot[V] {
	q.mu.Lock()
	defer q.mu.Unlock()

	var snapshots []snapshot[V]
	for _, key := range keys {
		e, ok := q.entries[key]
		var cur V
		if ok {
			cur = e.value
		}
		next, store := apply(key, cur, ok)
		if !store {
			continue
		}
		snapshots = append(snapshots, snapshot[V]{key: key, value: cur, existed: ok})
		if ok {
			e.value = next
		} else {
			q.entries[key] = &entry[V]{value: next}
		}
	}
	return snapshots
}

func (q *Query[V]) restore(snapshots []snapshot[V]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, s := range snapshots {
		if !s.existed {
			delete(q.entries, s.key)
			continue
		}
		if e, ok := q.entries[s.key]; ok {
			e.value = s.value
		}
	}
}
