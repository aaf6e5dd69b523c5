package cli

import (
	"context"
	"fmt"
)

// Sync replays any queued operations immediately instead of waiting for
// the next connectivity change.
func (a *App) Sync(ctx context.Context) error {
	if !a.engine.IsOnline() {
		fmt.Println("Offline; queued changes will sync when the server is reachable")
		return nil
	}
	a.engine.Replay(ctx)
	fmt.Println("Sync complete")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	fmt.Printf("State:    %s\n", a.engine.State())
	fmt.Printf("Mode:     %s\n", a.mode())
	fmt.Printf("Syncing:  %v\n", a.engine.IsSyncing())
	fmt.Printf("Pending:  %d operation(s)\n", a.engine.PendingCount())
	if err := a.engine.SyncError(); err != nil {
		fmt.Printf("Last sync error: %v\n", err)
	}
	return nil
}
