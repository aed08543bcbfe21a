// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/core/outbox"
)

// BindingRecord represents a worktree-to-chat binding as stored in persistence.
type BindingRecord struct {
	WorktreeID string
	ChatID     string
	CreatedAt  time.Time
}

// BindingRepository defines the secondary port for binding persistence.
// It is the sole writer of the worktree_bindings table.
type BindingRepository interface {
	// GetByWorktree retrieves the binding for a worktree, if any.
	GetByWorktree(ctx context.Context, worktreeID string) (*BindingRecord, error)

	// GetByChat retrieves the binding for a chat, if any.
	GetByChat(ctx context.Context, chatID string) (*BindingRecord, error)

	// Create persists a new binding.
	Create(ctx context.Context, binding *BindingRecord) error

	// DeleteByWorktree removes the binding for a worktree. No-op if absent.
	DeleteByWorktree(ctx context.Context, worktreeID string) error

	// DeleteByChat removes the binding for a chat. No-op if absent.
	DeleteByChat(ctx context.Context, chatID string) error

	// ListAll retrieves every binding.
	ListAll(ctx context.Context) ([]*BindingRecord, error)
}

// ChatFilters contains filter options for querying chats.
type ChatFilters struct {
	WorktreeID     string
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// ChatRepository defines the secondary port for chat persistence with
// optimistic concurrency on Update.
type ChatRepository interface {
	// Create persists a new chat.
	Create(ctx context.Context, chat *conversation.Chat) error

	// GetByID retrieves a chat by its ID.
	GetByID(ctx context.Context, id string) (*conversation.Chat, error)

	// Update conditionally writes the chat, requiring the stored version to
	// equal the in-memory version minus one. A zero-row match is a
	// concurrency conflict.
	Update(ctx context.Context, chat *conversation.Chat) error

	// UpdateSyncStatus writes only the sync status column, without touching
	// the version counter.
	UpdateSyncStatus(ctx context.Context, id, syncStatus string) error

	// List retrieves chats matching the given filters, ordered by
	// updated_at descending for stable pagination.
	List(ctx context.Context, filters ChatFilters) ([]*conversation.Chat, error)

	// PurgeDeleted physically removes soft-deleted chats whose deletion
	// predates the cutoff. Returns the number of rows removed.
	PurgeDeleted(ctx context.Context, before time.Time) (int, error)
}

// RunRepository defines the secondary port for run persistence.
type RunRepository interface {
	Create(ctx context.Context, run *conversation.Run) error
	GetByID(ctx context.Context, id string) (*conversation.Run, error)
	Update(ctx context.Context, run *conversation.Run) error
	UpdateSyncStatus(ctx context.Context, id, syncStatus string) error

	// ListByChat retrieves runs for a chat ordered by sequence number.
	ListByChat(ctx context.Context, chatID string) ([]*conversation.Run, error)

	// NextSequenceNumber returns the next run sequence number for a chat.
	NextSequenceNumber(ctx context.Context, chatID string) (int, error)
}

// MessageRepository defines the secondary port for message persistence.
type MessageRepository interface {
	Create(ctx context.Context, message *conversation.Message) error
	GetByID(ctx context.Context, id string) (*conversation.Message, error)
	Update(ctx context.Context, message *conversation.Message) error
	UpdateSyncStatus(ctx context.Context, id, syncStatus string) error

	// ListByRun retrieves messages for a run ordered by sequence number.
	ListByRun(ctx context.Context, runID string) ([]*conversation.Message, error)

	// NextSequenceNumber returns the next message sequence number for a run.
	NextSequenceNumber(ctx context.Context, runID string) (int, error)
}

// OutboxRepository defines the secondary port for the outbox queue.
// It is the sole writer of the outbox table.
type OutboxRepository interface {
	// Add persists a new entry.
	Add(ctx context.Context, entry *outbox.Entry) error

	// GetByID retrieves an entry by its ID.
	GetByID(ctx context.Context, id string) (*outbox.Entry, error)

	// GetPending retrieves up to limit eligible entries: status pending and
	// next_retry_at unset or passed, ordered by creation time ascending.
	GetPending(ctx context.Context, limit int, now time.Time) ([]*outbox.Entry, error)

	// Update persists entry state transitions.
	Update(ctx context.Context, entry *outbox.Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, id string) error

	// DeleteCompleted removes completed entries finished before the cutoff.
	// Returns the number of rows removed.
	DeleteCompleted(ctx context.Context, before time.Time) (int, error)

	// ListFailed retrieves dead-letter entries ordered by creation time.
	ListFailed(ctx context.Context) ([]*outbox.Entry, error)

	// CountPending returns the number of pending entries (durable, not cached).
	CountPending(ctx context.Context) (int, error)

	// OldestPendingCreatedAt returns the creation time of the oldest
	// pending entry, or the zero time when none are pending.
	OldestPendingCreatedAt(ctx context.Context) (time.Time, error)
}
