package cli

import (
	"context"
	"fmt"
)

// Sync forces a connectivity probe and, if the server answers, replays
// pending records right away instead of waiting for the next transition.
func (a *App) Sync(ctx context.Context) error {
	a.monitor.CheckNow(ctx)
	if !a.monitor.IsOnline() {
		fmt.Fprintln(a.out, "Server unreachable; changes stay queued")
		return nil
	}

	a.reconcileAll(ctx)

	n, err := a.pendingTotal(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	if n == 0 {
		fmt.Fprintln(a.out, "All records synced")
	} else {
		fmt.Fprintf(a.out, "%d record(s) still pending\n", n)
	}
	return nil
}

// Status reports connectivity and how many records wait for the server.
func (a *App) Status(ctx context.Context) error {
	fmt.Fprintln(a.out, "Connectivity:", a.status())
	fmt.Fprintln(a.out, "Client id:", a.clientID)

	n, err := a.pendingTotal(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return err
	}
	fmt.Fprintf(a.out, "Pending records: %d\n", n)
	return nil
}

func (a *App) pendingTotal(ctx context.Context) (int, error) {
	total := 0
	for _, count := range []func(context.Context) (int, error){
		a.inspections.PendingCount,
		a.treatments.PendingCount,
		a.feedings.PendingCount,
		a.hives.PendingCount,
	} {
		n, err := count(ctx)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
