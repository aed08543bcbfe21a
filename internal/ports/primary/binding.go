package primary

import "context"

// BindingService defines the primary port for worktree-to-chat bindings.
// The one-to-one invariant (at most one binding per worktree and per chat)
// is enforced here.
type BindingService interface {
	// CreateBinding binds a worktree to a chat. Fails if either side is
	// already bound.
	CreateBinding(ctx context.Context, req CreateBindingRequest) (*Binding, error)

	// DeleteBindingByWorktree removes the binding for a worktree.
	// Idempotent no-op when absent.
	DeleteBindingByWorktree(ctx context.Context, worktreeID string) error

	// DeleteBindingByChat removes the binding for a chat.
	// Idempotent no-op when absent.
	DeleteBindingByChat(ctx context.Context, chatID string) error

	// GetBoundChat returns the chat bound to a worktree, or empty when unbound.
	GetBoundChat(ctx context.Context, worktreeID string) (string, bool, error)

	// GetBoundWorktree returns the worktree bound to a chat, or empty when unbound.
	GetBoundWorktree(ctx context.Context, chatID string) (string, bool, error)

	// ListBindings returns all bindings.
	ListBindings(ctx context.Context) ([]*Binding, error)
}

// CreateBindingRequest contains parameters for creating a binding.
type CreateBindingRequest struct {
	WorktreeID string
	ChatID     string
}

// Binding represents a worktree-to-chat binding at the port boundary.
type Binding struct {
	WorktreeID string
	ChatID     string
	CreatedAt  string
}
