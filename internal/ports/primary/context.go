package primary

import "context"

// ContextService defines the primary port for resolving the active chat
// for a filesystem location.
type ContextService interface {
	// DetectWorktree finds the enclosing Git worktree for a path.
	// Returns found=false when the path is not inside a worktree.
	DetectWorktree(ctx context.Context, path string) (*WorktreeInfo, bool, error)

	// ResolveActiveChat detects the worktree for a path and returns its
	// bound chat. An unbound worktree is a normal outcome, not an error.
	ResolveActiveChat(ctx context.Context, path string) (*ActiveContext, error)

	// NotifyContextSwitch publishes a context-switch event for observers.
	NotifyContextSwitch(ctx context.Context, fromChatID, toChatID string) error
}

// WorktreeInfo describes a detected worktree at the port boundary.
type WorktreeInfo struct {
	ID   string
	Path string
}

// ActiveContext is the result of resolving a path to its active chat.
type ActiveContext struct {
	Worktree *WorktreeInfo // nil when the path is outside any worktree
	ChatID   string        // empty when the worktree is unbound
	Bound    bool
}
