package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/apiarist/hivekeep/internal/client/cache"
	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/common"
)

// Delete removes an inspection. The cached list drops it immediately; if the
// coordinator refuses (unknown id, rejected by the server) the entry comes
// back.
func (a *App) Delete(ctx context.Context) error {
	hiveID, err := GetSimpleText(a.reader, "Hive id", a.out)
	if err != nil {
		return err
	}
	recordID, err := GetSimpleText(a.reader, "Inspection id", a.out)
	if err != nil {
		return err
	}

	key := cache.Key{Resource: "inspections", Parent: hiveID}
	_, err = cache.Mutate(ctx, a.inspectionCache, cache.Mutation[[]models.Inspection, struct{}]{
		Keys: []cache.Key{key},
		Optimistic: func(k cache.Key, cur []models.Inspection, ok bool) ([]models.Inspection, bool) {
			idx := slices.IndexFunc(cur, func(r models.Inspection) bool { return r.ID == recordID })
			if idx < 0 {
				return nil, false
			}
			return slices.Delete(slices.Clone(cur), idx, idx+1), true
		},
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, a.inspections.Delete(ctx, hiveID, recordID)
		},
	})
	if errors.Is(err, common.ErrNotFound) {
		fmt.Fprintln(a.out, "No such inspection")
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	fmt.Fprintln(a.out, "Deleted")
	return nil
}
