package primary

import "context"

// SyncService defines the primary port for the background sync engine.
type SyncService interface {
	// Start launches the background loop. Idempotent no-op when running.
	Start(ctx context.Context) error

	// Stop halts the background loop and waits for it to exit.
	// Idempotent no-op when stopped.
	Stop(ctx context.Context) error

	// Pause suppresses sync cycles while keeping the timer alive.
	Pause(ctx context.Context) error

	// Resume re-enables sync cycles after Pause.
	Resume(ctx context.Context) error

	// SyncNow triggers one sync cycle immediately, serialized with
	// timer-driven cycles.
	SyncNow(ctx context.Context) error

	// Status reports engine and backlog state.
	Status(ctx context.Context) (*SyncStatus, error)

	// ListFailed returns dead-letter entries for inspection.
	ListFailed(ctx context.Context) ([]*OutboxEntry, error)

	// ReplayFailed resets a failed entry to pending for redelivery.
	ReplayFailed(ctx context.Context, entryID string) error
}

// SyncStatus reports engine state. PendingCount and SyncLagSeconds are
// always derived from the durable outbox table; TotalProcessed and
// TotalFailed are advisory in-memory counters that reset on restart.
type SyncStatus struct {
	Running        bool
	Paused         bool
	LastSyncAt     string
	PendingCount   int
	SyncLagSeconds float64
	TotalProcessed int64
	TotalFailed    int64
}

// OutboxEntry represents an outbox entry at the port boundary.
type OutboxEntry struct {
	ID             string
	IdempotencyKey string
	EntityType     string
	EntityID       string
	Operation      string
	Status         string
	RetryCount     int
	LastError      string
	CreatedAt      string
}
