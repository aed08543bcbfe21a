package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/acode/internal/ports/primary"
)

// ContextAdapter translates CLI operations to ContextService calls.
type ContextAdapter struct {
	service primary.ContextService
	out     io.Writer
}

// NewContextAdapter creates a new ContextAdapter with the given service.
func NewContextAdapter(service primary.ContextService, out io.Writer) *ContextAdapter {
	return &ContextAdapter{
		service: service,
		out:     out,
	}
}

// Show resolves and prints the active context for a path.
func (a *ContextAdapter) Show(ctx context.Context, path string) (*primary.ActiveContext, error) {
	active, err := a.service.ResolveActiveChat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve context: %w", err)
	}

	if active.Worktree == nil {
		fmt.Fprintln(a.out, "Not inside a git worktree.")
		return active, nil
	}

	fmt.Fprintf(a.out, "Worktree: %s\n", active.Worktree.Path)
	fmt.Fprintf(a.out, "ID:       %s\n", active.Worktree.ID)
	if active.Bound {
		fmt.Fprintf(a.out, "Chat:     %s%s\n", active.ChatID, color.New(color.FgHiMagenta).Sprint(" ← active"))
	} else {
		fmt.Fprintln(a.out, "Chat:     (unbound)")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Bind a chat to this worktree:")
		fmt.Fprintf(a.out, "  acode bind create --worktree %s --chat <chat-id>\n", active.Worktree.ID)
	}

	return active, nil
}
