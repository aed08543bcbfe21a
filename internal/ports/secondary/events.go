package secondary

import (
	"context"
	"time"
)

// ContextSwitchEvent records a change of active chat for a worktree.
type ContextSwitchEvent struct {
	FromChatID string
	ToChatID   string
	SwitchedAt time.Time
}

// ContextEventPublisher defines the secondary port for context-switch
// notifications. Audit and other observers are external collaborators.
type ContextEventPublisher interface {
	PublishContextSwitch(ctx context.Context, event ContextSwitchEvent) error
}
