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

// Update edits an inspection. Prompted fields left blank are not touched;
// the patch carries only what the user typed.
func (a *App) Update(ctx context.Context) error {
	hiveID, err := GetSimpleText(a.reader, "Hive id", a.out)
	if err != nil {
		return err
	}
	recordID, err := GetSimpleText(a.reader, "Inspection id", a.out)
	if err != nil {
		return err
	}
	health, err := GetOptionalText(a.reader, "Health (healthy/weak/critical)", a.out)
	if err != nil {
		return err
	}
	notes, err := GetOptionalText(a.reader, "Notes", a.out)
	if err != nil {
		return err
	}

	patch := map[string]any{}
	if health != "" {
		patch["health"] = health
	}
	if notes != "" {
		patch["notes"] = notes
	}
	if len(patch) == 0 {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	key := cache.Key{Resource: "inspections", Parent: hiveID}
	rec, err := cache.Mutate(ctx, a.inspectionCache, cache.Mutation[[]models.Inspection, models.Inspection]{
		Keys: []cache.Key{key},
		Optimistic: func(k cache.Key, cur []models.Inspection, ok bool) ([]models.Inspection, bool) {
			idx := slices.IndexFunc(cur, func(r models.Inspection) bool { return r.ID == recordID })
			if idx < 0 {
				return nil, false
			}
			patched, perr := models.ApplyPatch(cur[idx], patch)
			if perr != nil {
				return nil, false
			}
			out := slices.Clone(cur)
			out[idx] = patched
			return out, true
		},
		Call: func(ctx context.Context) (models.Inspection, error) {
			return a.inspections.Update(ctx, hiveID, recordID, patch)
		},
		Confirm: func(k cache.Key, cur []models.Inspection, ok bool, rec models.Inspection) ([]models.Inspection, bool) {
			idx := slices.IndexFunc(cur, func(r models.Inspection) bool { return r.ID == recordID })
			if idx < 0 {
				return cur, false
			}
			out := slices.Clone(cur)
			out[idx] = rec
			return out, true
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

	if rec.Pending() {
		fmt.Fprintf(a.out, "Updated %s locally; will sync when the server is reachable\n", rec.ID)
	} else {
		fmt.Fprintf(a.out, "Updated %s\n", rec.ID)
	}
	return nil
}
