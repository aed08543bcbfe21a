package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// LockServiceImpl implements the LockService interface. It is a thin
// translation layer over the secondary Locker port for inspection and
// manual override; acquisition happens where exclusion is needed.
type LockServiceImpl struct {
	locker secondary.Locker
}

// NewLockService creates a new LockService with injected dependencies.
func NewLockService(locker secondary.Locker) *LockServiceImpl {
	return &LockServiceImpl{locker: locker}
}

// Status reports the lock state for a worktree.
func (s *LockServiceImpl) Status(ctx context.Context, worktreeID string) (*primary.LockStatus, error) {
	status, err := s.locker.Status(worktreeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock status: %w", err)
	}

	return &primary.LockStatus{
		Held:       status.Held,
		IsStale:    status.IsStale,
		AgeSeconds: status.Age.Seconds(),
		Pid:        status.Pid,
		Hostname:   status.Hostname,
		Terminal:   status.Terminal,
	}, nil
}

// ForceUnlock unconditionally removes a lock.
func (s *LockServiceImpl) ForceUnlock(ctx context.Context, worktreeID string) error {
	if err := s.locker.ForceUnlock(worktreeID); err != nil {
		return fmt.Errorf("failed to force unlock: %w", err)
	}
	return nil
}

// Sweep removes all locks older than the threshold.
func (s *LockServiceImpl) Sweep(ctx context.Context, threshold time.Duration) (int, error) {
	removed, err := s.locker.ReleaseStale(threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale locks: %w", err)
	}
	return removed, nil
}
