package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/example/acode/internal/ports/secondary"
)

// Lock errors. LockBusyError wraps ErrLockBusy and carries the holder's
// status so contention messages can name the owner.
var (
	ErrLockBusy      = errors.New("lock busy")
	ErrLockCorrupted = errors.New("lock corrupted")
)

// LockBusyError reports contention on a live lock.
type LockBusyError struct {
	ResourceID string
	Status     secondary.LockStatus
}

func (e *LockBusyError) Error() string {
	return fmt.Sprintf("lock busy: %s held by pid %d on %s for %s",
		e.ResourceID, e.Status.Pid, e.Status.Hostname, e.Status.Age.Round(time.Second))
}

func (e *LockBusyError) Unwrap() error { return ErrLockBusy }

// lockRecord is the JSON document stored in a lock file.
type lockRecord struct {
	ProcessID int       `json:"ProcessId"`
	LockedAt  time.Time `json:"LockedAt"`
	Hostname  string    `json:"Hostname"`
	Terminal  string    `json:"Terminal"`
}

// DefaultStaleThreshold is the age past which a lock is presumed abandoned.
const DefaultStaleThreshold = 5 * time.Minute

// pollInterval is the sleep between acquisition attempts during timed
// waits. A plain polling loop, not a filesystem-notification wait: a
// deliberate simplicity/latency tradeoff for CLI-scale contention that
// also keeps stale-lock reclamation straightforward.
const pollInterval = 2 * time.Second

// Locker implements secondary.Locker over atomic filesystem operations.
// The exclusion primitive is a hard link onto the lock path, which fails
// when the destination exists; no advisory locks are assumed.
type Locker struct {
	resolver       *LockPathResolver
	locksDir       string
	staleThreshold time.Duration
	terminal       secondary.TerminalIdentifier
	logger         *log.Logger
}

// NewLocker creates a file locker rooted at locksDir. The directory is
// created if missing. A zero staleThreshold selects the default.
func NewLocker(locksDir string, staleThreshold time.Duration, terminal secondary.TerminalIdentifier, logger *log.Logger) (*Locker, error) {
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleThreshold
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(locksDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create locks directory: %w", err)
	}

	return &Locker{
		resolver:       NewLockPathResolver(locksDir),
		locksDir:       filepath.Clean(locksDir),
		staleThreshold: staleThreshold,
		terminal:       terminal,
		logger:         logger,
	}, nil
}

// Acquire claims the lock for resourceID.
//
// Protocol: write a lock record to a temp file, then hard-link it onto the
// lock path (atomic, fails when held), then re-read the file to verify
// ownership. A stale holder is reclaimed transparently. With timeout zero
// contention fails immediately with LockBusyError; with a positive timeout
// the attempt polls every 2s until the deadline.
func (l *Locker) Acquire(ctx context.Context, resourceID string, timeout time.Duration) (secondary.LockHandle, error) {
	lockPath, err := l.resolver.Resolve(resourceID)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	record := lockRecord{
		ProcessID: os.Getpid(),
		LockedAt:  time.Now().UTC(),
		Hostname:  hostname,
		Terminal:  l.terminalID(),
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		claimed, err := l.tryClaim(lockPath, record)
		if err != nil {
			return nil, err
		}
		if claimed {
			return &lockHandle{path: lockPath, logger: l.logger}, nil
		}

		// Lock exists: reclaim if stale, otherwise wait or fail.
		status, err := l.statusAtPath(lockPath)
		if err != nil {
			return nil, err
		}
		if !status.Held {
			// Either the holder released between claim and status read, or
			// the file holds unparseable garbage. A file that still exists
			// is the latter; remove it so the loop makes progress.
			if _, statErr := os.Stat(lockPath); statErr == nil {
				l.logger.Printf("WARN removing corrupt lock file for %s", resourceID)
				if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
					return nil, fmt.Errorf("failed to remove corrupt lock: %w", err)
				}
			}
			continue
		}
		if status.IsStale {
			l.logger.Printf("WARN removing stale lock for %s (pid %d, age %s)", resourceID, status.Pid, status.Age.Round(time.Second))
			if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to remove stale lock: %w", err)
			}
			continue
		}

		if timeout <= 0 {
			return nil, &LockBusyError{ResourceID: resourceID, Status: *status}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for lock on %s after %s: %w", resourceID, timeout, ErrLockBusy)
		}

		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// tryClaim performs one temp-write + link + verify cycle.
// Returns false without error when the lock is held by someone else.
func (l *Locker) tryClaim(lockPath string, record lockRecord) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal lock record: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", lockPath, record.ProcessID)
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return false, fmt.Errorf("failed to write lock temp file: %w", err)
	}

	linkErr := os.Link(tmpPath, lockPath)
	if rmErr := os.Remove(tmpPath); rmErr != nil {
		l.logger.Printf("WARN failed to remove lock temp file %s: %v", tmpPath, rmErr)
	}

	if linkErr != nil {
		if errors.Is(linkErr, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to claim lock: %w", linkErr)
	}

	// Verify ownership: a mismatch means the claim raced something and
	// must not be treated as held.
	verify, err := os.ReadFile(lockPath)
	if err != nil {
		return false, fmt.Errorf("%w: failed to read back lock file: %v", ErrLockCorrupted, err)
	}
	var stored lockRecord
	if err := json.Unmarshal(verify, &stored); err != nil {
		return false, fmt.Errorf("%w: unparseable lock file: %v", ErrLockCorrupted, err)
	}
	if stored.ProcessID != record.ProcessID {
		return false, fmt.Errorf("%w: ownership verification failed (found pid %d)", ErrLockCorrupted, stored.ProcessID)
	}

	return true, nil
}

// Status reports the lock state for resourceID without acquiring.
func (l *Locker) Status(resourceID string) (*secondary.LockStatus, error) {
	lockPath, err := l.resolver.Resolve(resourceID)
	if err != nil {
		return nil, err
	}
	return l.statusAtPath(lockPath)
}

func (l *Locker) statusAtPath(lockPath string) (*secondary.LockStatus, error) {
	data, err := os.ReadFile(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &secondary.LockStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lock file: %w", err)
	}

	var record lockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		// An unparseable lock file is treated as not held; sweep or
		// force-unlock cleans it up.
		return &secondary.LockStatus{}, nil
	}

	age := time.Since(record.LockedAt)
	return &secondary.LockStatus{
		Held:     true,
		IsStale:  age > l.staleThreshold,
		Age:      age,
		Pid:      record.ProcessID,
		Hostname: record.Hostname,
		Terminal: record.Terminal,
	}, nil
}

// ForceUnlock unconditionally deletes the lock (administrative override).
func (l *Locker) ForceUnlock(resourceID string) error {
	lockPath, err := l.resolver.Resolve(resourceID)
	if err != nil {
		return err
	}
	if err := os.Remove(lockPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to force-unlock %s: %w", resourceID, err)
	}
	l.logger.Printf("WARN force-unlocked %s", resourceID)
	return nil
}

// ReleaseStale sweeps the lock directory, removing locks whose recorded
// age exceeds threshold. Housekeeping, independent of acquisition.
func (l *Locker) ReleaseStale(threshold time.Duration) (int, error) {
	lockFiles, err := filepath.Glob(filepath.Join(l.locksDir, "*.lock"))
	if err != nil {
		return 0, fmt.Errorf("failed to list lock files: %w", err)
	}

	removed := 0
	for _, lockFile := range lockFiles {
		data, err := os.ReadFile(lockFile)
		if err != nil {
			continue
		}
		var record lockRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}

		age := time.Since(record.LockedAt)
		if age > threshold {
			l.logger.Printf("WARN removing stale lock %s (pid %d, age %s)", filepath.Base(lockFile), record.ProcessID, age.Round(time.Second))
			if err := os.Remove(lockFile); err == nil {
				removed++
			}
		}
	}

	// Temp files orphaned by a crash mid-claim have no record to age;
	// sweep them by modification time.
	tmpFiles, err := filepath.Glob(filepath.Join(l.locksDir, "*.tmp"))
	if err != nil {
		return removed, fmt.Errorf("failed to list lock temp files: %w", err)
	}
	for _, tmpFile := range tmpFiles {
		info, err := os.Stat(tmpFile)
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) > threshold {
			l.logger.Printf("WARN removing orphaned lock temp file %s", filepath.Base(tmpFile))
			if err := os.Remove(tmpFile); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

func (l *Locker) terminalID() string {
	if l.terminal == nil {
		return ""
	}
	return l.terminal.TerminalID()
}

// lockHandle releases the lock on Release. Best-effort: a missing file is
// equivalent to "not held", so delete failures are logged, not escalated.
type lockHandle struct {
	path     string
	logger   *log.Logger
	released bool
}

func (h *lockHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Printf("WARN failed to release lock %s: %v", h.path, err)
	}
}
