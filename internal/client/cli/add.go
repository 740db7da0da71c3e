package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/apiarist/hivekeep/internal/client/cache"
	"github.com/apiarist/hivekeep/internal/client/models"
)

// Add records a new inspection. The write goes through the optimistic cache:
// the list shows the new entry immediately and rolls it back if the
// coordinator rejects it.
func (a *App) Add(ctx context.Context) error {
	hiveID, err := GetSimpleText(a.reader, "Hive id", a.out)
	if err != nil {
		return err
	}
	date, err := GetSimpleText(a.reader, "Date (YYYY-MM-DD)", a.out)
	if err != nil {
		return err
	}
	health, err := GetOptionalText(a.reader, "Health (healthy/weak/critical)", a.out)
	if err != nil {
		return err
	}
	queenSeen, err := GetOptionalText(a.reader, "Queen seen (y/n)", a.out)
	if err != nil {
		return err
	}
	varroa, err := GetOptionalText(a.reader, "Varroa count", a.out)
	if err != nil {
		return err
	}
	notes, err := GetOptionalText(a.reader, "Notes", a.out)
	if err != nil {
		return err
	}

	payload := map[string]any{"date": date}
	if health != "" {
		payload["health"] = health
	}
	if queenSeen == "y" || queenSeen == "yes" {
		payload["queenSeen"] = true
	}
	if varroa != "" {
		n, convErr := strconv.Atoi(varroa)
		if convErr != nil {
			fmt.Fprintln(a.out, "Varroa count must be a number")
			return convErr
		}
		payload["varroaCount"] = n
	}
	if notes != "" {
		payload["notes"] = notes
	}

	key := cache.Key{Resource: "inspections", Parent: hiveID}
	rec, err := cache.Mutate(ctx, a.inspectionCache, cache.Mutation[[]models.Inspection, models.Inspection]{
		Keys: []cache.Key{key},
		Optimistic: func(k cache.Key, cur []models.Inspection, ok bool) ([]models.Inspection, bool) {
			provisional, perr := models.ApplyPatch(models.Inspection{}, payload)
			if perr != nil {
				return nil, false
			}
			return append(slices.Clone(cur), provisional), true
		},
		Call: func(ctx context.Context) (models.Inspection, error) {
			return a.inspections.Create(ctx, hiveID, payload)
		},
		Confirm: func(k cache.Key, cur []models.Inspection, ok bool, rec models.Inspection) ([]models.Inspection, bool) {
			if !ok || len(cur) == 0 {
				return cur, false
			}
			out := slices.Clone(cur)
			out[len(out)-1] = rec
			return out, true
		},
	})
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	if rec.Pending() {
		fmt.Fprintf(a.out, "Saved locally as %s; will sync when the server is reachable\n", rec.ID)
	} else {
		fmt.Fprintf(a.out, "Created %s\n", rec.ID)
	}
	return nil
}
