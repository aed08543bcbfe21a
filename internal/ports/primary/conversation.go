package primary

import (
	"context"
	"time"
)

// ConversationService defines the primary port for chat, run and message
// lifecycle. Every local write also enqueues an outbox entry so the change
// reaches the remote store.
type ConversationService interface {
	// CreateChat creates a chat, optionally bound to a worktree.
	CreateChat(ctx context.Context, req CreateChatRequest) (*Chat, error)

	// GetChat retrieves a chat by ID.
	GetChat(ctx context.Context, chatID string) (*Chat, error)

	// RenameChat updates a chat title.
	RenameChat(ctx context.Context, chatID, title string) (*Chat, error)

	// TagChat adds a tag to a chat.
	TagChat(ctx context.Context, chatID, tag string) (*Chat, error)

	// DeleteChat soft-deletes a chat and removes its binding.
	DeleteChat(ctx context.Context, chatID string) error

	// RestoreChat reverses a soft delete.
	RestoreChat(ctx context.Context, chatID string) (*Chat, error)

	// PurgeDeletedChats physically removes chats deleted before the cutoff.
	PurgeDeletedChats(ctx context.Context, before time.Time) (int, error)

	// ListChats lists chats with filtering and stable pagination.
	ListChats(ctx context.Context, req ListChatsRequest) ([]*Chat, error)

	// StartRun begins a run in a chat.
	StartRun(ctx context.Context, chatID, modelID string) (*Run, error)

	// CompleteRun finishes a run with token usage.
	CompleteRun(ctx context.Context, runID string, tokensIn, tokensOut int) (*Run, error)

	// FailRun marks a run failed.
	FailRun(ctx context.Context, runID, errorMessage string) (*Run, error)

	// AppendMessage adds a message to a run.
	AppendMessage(ctx context.Context, req AppendMessageRequest) (*Message, error)

	// ListRuns lists runs for a chat in sequence order.
	ListRuns(ctx context.Context, chatID string) ([]*Run, error)

	// ListMessages lists messages for a run in sequence order.
	ListMessages(ctx context.Context, runID string) ([]*Message, error)
}

// CreateChatRequest contains parameters for creating a chat.
type CreateChatRequest struct {
	Title      string
	WorktreeID string
	Tags       []string
}

// ListChatsRequest contains filter parameters for listing chats.
type ListChatsRequest struct {
	WorktreeID     string
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// AppendMessageRequest contains parameters for appending a message.
type AppendMessageRequest struct {
	RunID   string
	Role    string
	Content string
}

// Chat represents a chat at the port boundary.
type Chat struct {
	ID         string
	Title      string
	Tags       []string
	WorktreeID string
	IsDeleted  bool
	DeletedAt  string
	SyncStatus string
	Version    int
	CreatedAt  string
	UpdatedAt  string
}

// Run represents a run at the port boundary.
type Run struct {
	ID             string
	ChatID         string
	ModelID        string
	Status         string
	StartedAt      string
	CompletedAt    string
	TokensIn       int
	TokensOut      int
	SequenceNumber int
	ErrorMessage   string
	SyncStatus     string
	Version        int
}

// Message represents a message at the port boundary.
type Message struct {
	ID             string
	RunID          string
	ChatID         string
	Role           string
	Content        string
	SequenceNumber int
	SyncStatus     string
	Version        int
	CreatedAt      string
}
