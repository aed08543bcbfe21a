package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/acode/internal/ports/primary"
)

// LockAdapter translates CLI operations to LockService calls.
type LockAdapter struct {
	service primary.LockService
	out     io.Writer
}

// NewLockAdapter creates a new LockAdapter with the given service.
func NewLockAdapter(service primary.LockService, out io.Writer) *LockAdapter {
	return &LockAdapter{
		service: service,
		out:     out,
	}
}

// Status prints the lock state for a worktree.
func (a *LockAdapter) Status(ctx context.Context, worktreeID string) (*primary.LockStatus, error) {
	status, err := a.service.Status(ctx, worktreeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock status: %w", err)
	}

	if !status.Held {
		fmt.Fprintf(a.out, "Worktree %s is unlocked.\n", worktreeID)
		return status, nil
	}

	age := time.Duration(status.AgeSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(a.out, "Worktree %s is locked.\n", worktreeID)
	fmt.Fprintf(a.out, "Holder:   pid %d on %s\n", status.Pid, status.Hostname)
	if status.Terminal != "" {
		fmt.Fprintf(a.out, "Terminal: %s\n", status.Terminal)
	}
	fmt.Fprintf(a.out, "Age:      %s\n", age)
	if status.IsStale {
		fmt.Fprintf(a.out, "%s the holder appears dead; the lock will be reclaimed on next acquisition\n",
			color.New(color.FgYellow).Sprint("STALE:"))
	}

	return status, nil
}

// ForceUnlock unconditionally removes a lock.
func (a *LockAdapter) ForceUnlock(ctx context.Context, worktreeID string) error {
	if err := a.service.ForceUnlock(ctx, worktreeID); err != nil {
		return fmt.Errorf("failed to force unlock: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Removed lock for worktree %s\n", worktreeID)
	return nil
}

// Sweep removes all locks older than threshold.
func (a *LockAdapter) Sweep(ctx context.Context, threshold time.Duration) error {
	removed, err := a.service.Sweep(ctx, threshold)
	if err != nil {
		return fmt.Errorf("failed to sweep locks: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Removed %d stale lock(s)\n", removed)
	return nil
}
