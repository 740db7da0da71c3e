// Package services implements the synchronization coordinator. A Collection
// binds one record type's remote gateway to its durable snapshots and decides,
// per operation, whether to talk to the backend or to queue the change as a
// pending record for later reconciliation.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/apiarist/hivekeep/internal/client/connectivity"
	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/client/repositories/snapshots"
	"github.com/apiarist/hivekeep/internal/client/rest"
	"github.com/apiarist/hivekeep/internal/common"
	"github.com/apiarist/hivekeep/internal/logging"
)

// Gateway is the remote side of a collection. *rest.Resource satisfies it.
type Gateway[T any] interface {
	List(ctx context.Context, parentID string) ([]T, error)
	Create(ctx context.Context, parentID string, payload any) (T, error)
	Update(ctx context.Context, parentID, id string, payload any) (T, error)
	Delete(ctx context.Context, parentID, id string) error
}

// Collection coordinates reads and writes for one record type. Writes always
// try the remote first while the connectivity signal claims online; a
// retryable failure of that call drops to the offline path instead of being
// surfaced, so a stale online signal cannot lose a write. Mutations on the
// same parent key are serialized; different parents proceed independently.
type Collection[T models.Syncable[T]] struct {
	name   string
	remote Gateway[T]
	local  *snapshots.Collection[T]
	status connectivity.Status
	log    logging.Logger

	locks       *keyedMutex
	reconciling atomic.Bool
	newTempID   func() string
}

type Option[T models.Syncable[T]] func(*Collection[T])

func WithLogger[T models.Syncable[T]](log logging.Logger) Option[T] {
	return func(c *Collection[T]) { c.log = log }
}

// WithTempIDs overrides how temporary ids for offline creates are generated.
func WithTempIDs[T models.Syncable[T]](gen func() string) Option[T] {
	return func(c *Collection[T]) { c.newTempID = gen }
}

func NewCollection[T models.Syncable[T]](name string, remote Gateway[T], local *snapshots.Collection[T], status connectivity.Status, opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		name:   name,
		remote: remote,
		local:  local,
		status: status,
		log:    logging.Nop(),
		locks:  newKeyedMutex(),
		// ULIDs are time-ordered and unique within a session, so a temp id
		// never collides with another offline create.
		newTempID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the collection for parentID. Online it fetches the
// authoritative list and overwrites the local snapshot with it; if the fetch
// fails with a retryable error, or the monitor says offline, it falls back to
// the snapshot. No snapshot either means common.ErrDataUnavailable.
func (c *Collection[T]) Read(ctx context.Context, parentID string) ([]T, error) {
	unlock := c.locks.lock(parentID)
	defer unlock()

	if c.status.IsOnline() {
		records, err := c.remote.List(ctx, parentID)
		if err == nil {
			if err := c.local.Save(ctx, parentID, records); err != nil {
				// The read itself succeeded; a storage failure only costs
				// the offline copy.
				c.log.Warn(ctx, "failed to persist snapshot", "collection", c.name, "parent", parentID, "error", err)
			}
			return records, nil
		}
		if !rest.IsRetryable(err) {
			return nil, err
		}
		c.log.Warn(ctx, "remote list failed, falling back to snapshot", "collection", c.name, "parent", parentID, "error", err)
	}

	records, err := c.local.Load(ctx, parentID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: no snapshot for %s", common.ErrDataUnavailable, c.local.Key(parentID))
	}
	return records, err
}

// Create adds a record built from payload. On the offline path the record
// gets a temporary id and a pending create tag, is appended to the snapshot,
// and is returned as if the write succeeded.
func (c *Collection[T]) Create(ctx context.Context, parentID string, payload map[string]any) (T, error) {
	var zero T

	unlock := c.locks.lock(parentID)
	defer unlock()

	records, err := c.loadOrEmpty(ctx, parentID)
	if err != nil {
		return zero, err
	}

	if c.status.IsOnline() {
		rec, err := c.remote.Create(ctx, parentID, payload)
		if err == nil {
			if err := c.local.Save(ctx, parentID, append(records, rec)); err != nil {
				return zero, err
			}
			return rec, nil
		}
		if !rest.IsRetryable(err) {
			return zero, err
		}
		c.log.Warn(ctx, "remote create failed, queuing offline", "collection", c.name, "parent", parentID, "error", err)
	}

	rec, err := models.ApplyPatch(zero, payload)
	if err != nil {
		return zero, err
	}
	rec = rec.WithID(c.newTempID()).WithMeta(models.Tagged(models.ActionCreate))

	if err := c.local.Save(ctx, parentID, append(records, rec)); err != nil {
		return zero, err
	}
	return rec, nil
}

// Update merges patch into the record with the given id. A record that is
// still a pending create keeps its create tag and is never sent upstream
// here: the server has not seen its temporary id yet, reconciliation will
// post the merged fields in one request. A record tombstoned for delete is
// reported as not found.
func (c *Collection[T]) Update(ctx context.Context, parentID, id string, patch map[string]any) (T, error) {
	var zero T

	unlock := c.locks.lock(parentID)
	defer unlock()

	records, idx, err := c.find(ctx, parentID, id)
	if err != nil {
		return zero, err
	}
	cur := records[idx]
	if cur.Meta().OfflineAction == models.ActionDelete {
		return zero, fmt.Errorf("%w: record %s is deleted", common.ErrNotFound, id)
	}

	merged, err := models.ApplyPatch(cur, patch)
	if err != nil {
		return zero, err
	}

	pendingCreate := cur.Meta().OfflineAction == models.ActionCreate

	if c.status.IsOnline() && !pendingCreate {
		payload, err := models.DomainPayload(merged)
		if err != nil {
			return zero, err
		}
		rec, err := c.remote.Update(ctx, parentID, id, payload)
		if err == nil {
			records[idx] = rec
			if err := c.local.Save(ctx, parentID, records); err != nil {
				return zero, err
			}
			return rec, nil
		}
		if !rest.IsRetryable(err) {
			return zero, err
		}
		c.log.Warn(ctx, "remote update failed, queuing offline", "collection", c.name, "parent", parentID, "id", id, "error", err)
	}

	// A pending create stays a create so reconciliation posts the merged
	// fields instead of putting to an id the server never issued.
	action := models.ActionUpdate
	if pendingCreate {
		action = models.ActionCreate
	}
	merged = merged.WithMeta(models.Tagged(action))

	records[idx] = merged
	if err := c.local.Save(ctx, parentID, records); err != nil {
		return zero, err
	}
	return merged, nil
}

// Delete removes the record with the given id. A pending create is dropped
// locally in every case since the server never saw it. Otherwise the offline
// path keeps the record as a tombstone until reconciliation confirms the
// remote delete.
func (c *Collection[T]) Delete(ctx context.Context, parentID, id string) error {
	unlock := c.locks.lock(parentID)
	defer unlock()

	records, idx, err := c.find(ctx, parentID, id)
	if err != nil {
		return err
	}
	cur := records[idx]

	if cur.Meta().OfflineAction == models.ActionCreate {
		return c.local.Save(ctx, parentID, removeAt(records, idx))
	}

	if c.status.IsOnline() {
		err := c.remote.Delete(ctx, parentID, id)
		if err == nil {
			return c.local.Save(ctx, parentID, removeAt(records, idx))
		}
		if !rest.IsRetryable(err) {
			return err
		}
		c.log.Warn(ctx, "remote delete failed, queuing offline", "collection", c.name, "parent", parentID, "id", id, "error", err)
	}

	records[idx] = cur.WithMeta(models.Tagged(models.ActionDelete))
	return c.local.Save(ctx, parentID, records)
}

func (c *Collection[T]) loadOrEmpty(ctx context.Context, parentID string) ([]T, error) {
	records, err := c.local.Load(ctx, parentID)
	if errors.Is(err, common.ErrNotFound) {
		return []T{}, nil
	}
	return records, err
}

func (c *Collection[T]) find(ctx context.Context, parentID, id string) ([]T, int, error) {
	records, err := c.local.Load(ctx, parentID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, 0, fmt.Errorf("%w: no snapshot for %s", common.ErrNotFound, c.local.Key(parentID))
	}
	if err != nil {
		return nil, 0, err
	}
	for i, rec := range records {
		if rec.RecordID() == id {
			return records, i, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: record %s in %s", common.ErrNotFound, id, c.local.Key(parentID))
}

func removeAt[T any](records []T, idx int) []T {
	return append(records[:idx:idx], records[idx+1:]...)
}
