package cache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetch struct {
	mu    sync.Mutex
	calls int
	value []string
	err   error
}

func (f *countingFetch) fetch(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.value, nil
}

func (f *countingFetch) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestReadMissFetchesSynchronously(t *testing.T) {
	q := NewQuery[[]string]()
	f := &countingFetch{value: []string{"a"}}
	key := Key{Resource: "inspections", Parent: "hive1"}

	got, err := q.Read(context.Background(), key, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, f.count())
}

func TestReadFreshHitSkipsFetch(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	f := &countingFetch{value: []string{"a"}}
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)

	got, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, f.count())
}

func TestReadMissPropagatesError(t *testing.T) {
	q := NewQuery[[]string]()
	f := &countingFetch{err: errors.New("unreachable")}
	key := Key{Resource: "inspections", Parent: "hive1"}

	_, err := q.Read(context.Background(), key, f.fetch)
	assert.Error(t, err)

	_, ok := q.Peek(key)
	assert.False(t, ok)
}

func TestReadStaleServesOldAndRevalidates(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	f := &countingFetch{value: []string{"old"}}
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)

	f.mu.Lock()
	f.value = []string{"new"}
	f.mu.Unlock()
	q.Invalidate(key)

	// The stale read returns the old value without waiting.
	got, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, got)

	require.Eventually(t, func() bool {
		v, ok := q.Peek(key)
		return ok && len(v) == 1 && v[0] == "new"
	}, time.Second, 5*time.Millisecond)
}

func TestRevalidationFailureKeepsStaleValue(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	f := &countingFetch{value: []string{"old"}}
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)

	f.mu.Lock()
	f.err = errors.New("unreachable")
	f.mu.Unlock()
	q.Invalidate(key)

	got, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, got)

	require.Eventually(t, func() bool { return f.count() >= 2 }, time.Second, 5*time.Millisecond)
	v, ok := q.Peek(key)
	require.True(t, ok)
	assert.Equal(t, []string{"old"}, v)
}

func TestRevalidationSurvivesCallerCancel(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	key := Key{Resource: "inspections", Parent: "hive1"}

	_, err := q.Read(context.Background(), key, (&countingFetch{value: []string{"old"}}).fetch)
	require.NoError(t, err)
	q.Invalidate(key)

	ctx, cancel := context.WithCancel(context.Background())
	var sawCancel atomic.Bool
	_, err = q.Read(ctx, key, func(fctx context.Context) ([]string, error) {
		if fctx.Err() != nil {
			sawCancel.Store(true)
		}
		return []string{"new"}, nil
	})
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		v, ok := q.Peek(key)
		return ok && len(v) == 1 && v[0] == "new"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, sawCancel.Load())
}

func TestDropForcesSynchronousFetch(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	f := &countingFetch{value: []string{"a"}}
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, f.fetch)
	require.NoError(t, err)

	q.Drop(key)
	_, ok := q.Peek(key)
	assert.False(t, ok)

	_, err = q.Read(ctx, key, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count())
}

func TestMutateOptimisticThenInvalidate(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, (&countingFetch{value: []string{"a", "b"}}).fetch)
	require.NoError(t, err)

	var settled bool
	res, err := Mutate(ctx, q, Mutation[[]string, string]{
		Keys: []Key{key},
		Optimistic: func(k Key, cur []string, ok bool) ([]string, bool) {
			return append(cur, "c"), true
		},
		Call: func(ctx context.Context) (string, error) {
			// The optimistic patch is visible while the call is in flight.
			v, ok := q.Peek(key)
			require.True(t, ok)
			assert.Equal(t, []string{"a", "b", "c"}, v)
			return "created", nil
		},
		OnSettle: func(result string, err error) { settled = true },
	})
	require.NoError(t, err)
	assert.Equal(t, "created", res)
	assert.True(t, settled)

	// Success keeps the patched value and marks the key stale.
	v, ok := q.Peek(key)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, v)
	q.mu.Lock()
	assert.True(t, q.entries[key].stale)
	q.mu.Unlock()
}

func TestMutateRollsBackOnFailure(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, (&countingFetch{value: []string{"a", "b"}}).fetch)
	require.NoError(t, err)

	_, err = Mutate(ctx, q, Mutation[[]string, string]{
		Keys: []Key{key},
		Optimistic: func(k Key, cur []string, ok bool) ([]string, bool) {
			return append(cur, "c"), true
		},
		Call: func(ctx context.Context) (string, error) {
			return "", errors.New("validation failed")
		},
	})
	require.Error(t, err)

	v, ok := q.Peek(key)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestMutateRollbackRemovesEntryItCreated(t *testing.T) {
	q := NewQuery[[]string]()
	key := Key{Resource: "inspections", Parent: "hive1"}

	_, err := Mutate(context.Background(), q, Mutation[[]string, string]{
		Keys: []Key{key},
		Optimistic: func(k Key, cur []string, ok bool) ([]string, bool) {
			assert.False(t, ok)
			return []string{"c"}, true
		},
		Call: func(ctx context.Context) (string, error) {
			return "", errors.New("unreachable")
		},
	})
	require.Error(t, err)

	_, ok := q.Peek(key)
	assert.False(t, ok)
}

func TestMutateConfirmReplacesProvisionalValue(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, (&countingFetch{value: []string{"a"}}).fetch)
	require.NoError(t, err)

	_, err = Mutate(ctx, q, Mutation[[]string, string]{
		Keys: []Key{key},
		Optimistic: func(k Key, cur []string, ok bool) ([]string, bool) {
			return append(cur, "temp"), true
		},
		Call: func(ctx context.Context) (string, error) {
			return "server", nil
		},
		Confirm: func(k Key, cur []string, ok bool, result string) ([]string, bool) {
			out := slices.Clone(cur[:len(cur)-1])
			return append(out, result), true
		},
	})
	require.NoError(t, err)

	v, ok := q.Peek(key)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "server"}, v)
}

func TestMutateWithoutOptimisticStillInvalidates(t *testing.T) {
	q := NewQuery[[]string](WithTTL[[]string](time.Minute))
	key := Key{Resource: "inspections", Parent: "hive1"}
	ctx := context.Background()

	_, err := q.Read(ctx, key, (&countingFetch{value: []string{"a"}}).fetch)
	require.NoError(t, err)

	_, err = Mutate(ctx, q, Mutation[[]string, struct{}]{
		Keys: []Key{key},
		Call: func(ctx context.Context) (struct{}, error) { return struct{}{}, nil },
	})
	require.NoError(t, err)

	q.mu.Lock()
	assert.True(t, q.entries[key].stale)
	q.mu.Unlock()
}
