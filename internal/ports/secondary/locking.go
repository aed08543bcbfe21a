package secondary

import (
	"context"
	"time"
)

// LockStatus describes the observed state of a lock file.
type LockStatus struct {
	Held     bool
	IsStale  bool
	Age      time.Duration
	Pid      int
	Hostname string
	Terminal string
}

// LockHandle is a held lock; Release is best-effort cleanup.
type LockHandle interface {
	Release()
}

// Locker defines the secondary port for cross-process mutual exclusion.
// Acquisition with timeout zero fails immediately when the lock is busy.
type Locker interface {
	// Acquire claims the lock for resourceID, reclaiming stale locks
	// transparently. With a positive timeout it polls until the deadline.
	Acquire(ctx context.Context, resourceID string, timeout time.Duration) (LockHandle, error)

	// Status reports the lock state without acquiring.
	Status(resourceID string) (*LockStatus, error)

	// ForceUnlock unconditionally deletes the lock (administrative override).
	ForceUnlock(resourceID string) error

	// ReleaseStale sweeps the lock directory, removing locks older than threshold.
	// Returns the number of locks removed.
	ReleaseStale(threshold time.Duration) (int, error)
}

// TerminalIdentifier resolves an identity for the current terminal,
// recorded in lock files so a human can locate the holder.
type TerminalIdentifier interface {
	TerminalID() string
}
