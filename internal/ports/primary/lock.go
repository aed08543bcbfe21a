package primary

import (
	"context"
	"time"
)

// LockService defines the primary port for worktree lock administration.
// Lock acquisition itself happens through the secondary Locker port held by
// whatever operation needs exclusion; this port serves inspection and
// manual override from the CLI.
type LockService interface {
	// Status reports the lock state for a worktree.
	Status(ctx context.Context, worktreeID string) (*LockStatus, error)

	// ForceUnlock unconditionally removes a lock.
	ForceUnlock(ctx context.Context, worktreeID string) error

	// Sweep removes all locks older than the threshold.
	Sweep(ctx context.Context, threshold time.Duration) (int, error)
}

// LockStatus reports lock state at the port boundary.
type LockStatus struct {
	Held       bool
	IsStale    bool
	AgeSeconds float64
	Pid        int
	Hostname   string
	Terminal   string
}
