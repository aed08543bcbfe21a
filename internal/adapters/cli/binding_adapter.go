package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// BindingAdapter translates CLI operations to BindingService calls.
type BindingAdapter struct {
	service primary.BindingService
	out     io.Writer
}

// NewBindingAdapter creates a new BindingAdapter with the given service.
func NewBindingAdapter(service primary.BindingService, out io.Writer) *BindingAdapter {
	return &BindingAdapter{
		service: service,
		out:     out,
	}
}

// Create binds a worktree to a chat.
func (a *BindingAdapter) Create(ctx context.Context, worktreeID, chatID string) error {
	_, err := a.service.CreateBinding(ctx, primary.CreateBindingRequest{
		WorktreeID: worktreeID,
		ChatID:     chatID,
	})
	if err != nil {
		var exists *secondary.BindingExistsError
		if errors.As(err, &exists) {
			fmt.Fprintf(a.out, "✗ Worktree %s is already bound to chat %s\n", exists.WorktreeID, exists.ChatID)
			fmt.Fprintf(a.out, "  Unbind it first: acode bind delete --worktree %s\n", exists.WorktreeID)
		}
		return fmt.Errorf("failed to create binding: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Bound worktree %s to chat %s\n", worktreeID, chatID)
	return nil
}

// DeleteByWorktree removes the binding for a worktree.
func (a *BindingAdapter) DeleteByWorktree(ctx context.Context, worktreeID string) error {
	if err := a.service.DeleteBindingByWorktree(ctx, worktreeID); err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Unbound worktree %s\n", worktreeID)
	return nil
}

// DeleteByChat removes the binding for a chat.
func (a *BindingAdapter) DeleteByChat(ctx context.Context, chatID string) error {
	if err := a.service.DeleteBindingByChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Unbound chat %s\n", chatID)
	return nil
}

// List prints all bindings.
func (a *BindingAdapter) List(ctx context.Context) ([]*primary.Binding, error) {
	bindings, err := a.service.ListBindings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}

	if len(bindings) == 0 {
		fmt.Fprintln(a.out, "No bindings found.")
		return bindings, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WORKTREE\tCHAT\tCREATED")
	fmt.Fprintln(w, "--------\t----\t-------")
	for _, binding := range bindings {
		fmt.Fprintf(w, "%s\t%s\t%s\n", binding.WorktreeID, binding.ChatID, binding.CreatedAt)
	}
	w.Flush()

	return bindings, nil
}
