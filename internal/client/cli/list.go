package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/apiarist/hivekeep/internal/client/cache"
	"github.com/apiarist/hivekeep/internal/client/models"
	"github.com/apiarist/hivekeep/internal/common"
)

// List prints the inspections for one hive, newest snapshot we have. Records
// tombstoned for deletion are hidden; records still waiting for the server
// are marked pending.
func (a *App) List(ctx context.Context) error {
	hiveID, err := GetSimpleText(a.reader, "Hive id", a.out)
	if err != nil {
		return err
	}

	key := cache.Key{Resource: "inspections", Parent: hiveID}
	records, err := a.inspectionCache.Read(ctx, key, func(ctx context.Context) ([]models.Inspection, error) {
		return a.inspections.Read(ctx, hiveID)
	})
	if errors.Is(err, common.ErrDataUnavailable) {
		fmt.Fprintln(a.out, "No data for this hive yet; connect once to fetch it")
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}

	shown := 0
	for _, rec := range records {
		if rec.OfflineAction == models.ActionDelete {
			continue
		}
		marker := ""
		if rec.Pending() {
			marker = " [pending]"
		}
		fmt.Fprintf(a.out, "%s  %s  health=%s queen=%v varroa=%d  %s%s\n",
			rec.ID, rec.Date, rec.Health, rec.QueenSeen, rec.VarroaCount, rec.Notes, marker)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(a.out, "No inspections recorded")
	}
	return nil
}
