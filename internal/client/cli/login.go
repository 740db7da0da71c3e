package cli

import (
	"context"
	"fmt"
)

// Login stores an access token obtained out of band (the beekeeper's web
// account page issues them). The token is kept in local metadata so the
// session survives restarts.
func (a *App) Login(ctx context.Context) error {
	token, err := GetSecret("Enter access token", a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error reading token:", err)
		return err
	}
	if len(token) == 0 {
		fmt.Fprintln(a.out, "Empty token, nothing saved")
		return nil
	}

	if err := a.tokens.Save(ctx, string(token)); err != nil {
		fmt.Fprintln(a.out, "Error saving token:", err)
		return err
	}

	// Re-probe right away so the prompt reflects reality.
	a.monitor.CheckNow(ctx)

	fmt.Fprintln(a.out, "Token saved")
	return nil
}

// Logout forgets the stored token. Local snapshots stay on disk.
func (a *App) Logout(ctx context.Context) error {
	if err := a.tokens.Clear(ctx); err != nil {
		fmt.Fprintln(a.out, "Error clearing token:", err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
