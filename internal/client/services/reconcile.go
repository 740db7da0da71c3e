package services

import (
	"context"
	"errors"

	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/common"
)

// Reconcile replays every pending record against the remote, in snapshot
// order, one parent key at a time. At most one pass runs at a time; a call
// that lands while another is in flight returns immediately so a burst of
// online transitions cannot double-post the same pending creates.
//
// Failures are per record: a record whose replay fails stays pending for the
// next pass, the rest of the snapshot still proceeds. Only a failure to
// enumerate snapshot keys is returned.
func (c *Collection[T]) Reconcile(ctx context.Context) error {
	if !c.reconciling.CompareAndSwap(false, true) {
		c.log.Debug(ctx, "reconciliation already in flight", "collection", c.name)
		return nil
	}
	defer c.reconciling.Store(false)

	parents, err := c.local.Parents(ctx)
	if err != nil {
		return err
	}

	for _, parentID := range parents {
		if err := c.reconcileParent(ctx, parentID); err != nil {
			c.log.Error(ctx, "failed to reconcile snapshot", "collection", c.name, "parent", parentID, "error", err)
		}
	}
	return nil
}

func (c *Collection[T]) reconcileParent(ctx context.Context, parentID string) error {
	unlock := c.locks.lock(parentID)
	defer unlock()

	records, err := c.local.Load(ctx, parentID)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	out := make([]T, 0, len(records))
	changed := false

	for _, rec := range records {
		if !rec.Meta().Pending() {
			out = append(out, rec)
			continue
		}

		next, keep, err := c.replay(ctx, parentID, rec)
		if err != nil {
			c.log.Warn(ctx, "replay failed, record stays pending",
				"collection", c.name, "parent", parentID, "id", rec.RecordID(),
				"action", string(rec.Meta().OfflineAction), "error", err)
			out = append(out, rec)
			continue
		}
		if keep {
			out = append(out, next)
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return c.local.Save(ctx, parentID, out)
}

// replay pushes one pending record upstream. For creates the temporary id is
// stripped from the payload and the server record takes the slot; confirmed
// deletes drop the tombstone (keep=false).
func (c *Collection[T]) replay(ctx context.Context, parentID string, rec T) (next T, keep bool, err error) {
	var zero T

	switch rec.Meta().OfflineAction {
	case models.ActionCreate:
		payload, err := models.DomainPayload(rec)
		if err != nil {
			return zero, false, err
		}
		srv, err := c.remote.Create(ctx, parentID, payload)
		if err != nil {
			return zero, false, err
		}
		return srv, true, nil

	case models.ActionUpdate:
		payload, err := models.DomainPayload(rec)
		if err != nil {
			return zero, false, err
		}
		srv, err := c.remote.Update(ctx, parentID, rec.RecordID(), payload)
		if err != nil {
			return zero, false, err
		}
		return srv, true, nil

	case models.ActionDelete:
		if err := c.remote.Delete(ctx, parentID, rec.RecordID()); err != nil {
			return zero, false, err
		}
		return zero, false, nil

	default:
		// Pending without an action should not happen; clear the flag
		// rather than carry it forever.
		return rec.WithMeta(rec.Meta().Cleared()), true, nil
	}
}

// PendingCount reports how many records across all snapshots still carry
// offline tags.
func (c *Collection[T]) PendingCount(ctx context.Context) (int, error) {
	parents, err := c.local.Parents(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, parentID := range parents {
		records, err := c.local.Load(ctx, parentID)
		if err != nil {
			return 0, err
		}
		for _, rec := range records {
			if rec.Meta().Pending() {
				count++
			}
		}
	}
	return count, nil
}
