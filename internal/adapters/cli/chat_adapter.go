// Package cli contains thin adapters that translate CLI operations into
// primary-port calls and render the results. Adapters are stateless: they
// hold a service interface and an output writer, nothing else.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/example/acode/internal/ports/primary"
)

// ChatAdapter translates CLI operations to ConversationService calls.
type ChatAdapter struct {
	service primary.ConversationService
	out     io.Writer
}

// NewChatAdapter creates a new ChatAdapter with the given service.
func NewChatAdapter(service primary.ConversationService, out io.Writer) *ChatAdapter {
	return &ChatAdapter{
		service: service,
		out:     out,
	}
}

// Create creates a chat and prints it.
func (a *ChatAdapter) Create(ctx context.Context, title, worktreeID string, tags []string) (*primary.Chat, error) {
	chat, err := a.service.CreateChat(ctx, primary.CreateChatRequest{
		Title:      title,
		WorktreeID: worktreeID,
		Tags:       tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Created chat %s: %s\n", chat.ID, chat.Title)
	if chat.WorktreeID != "" {
		fmt.Fprintf(a.out, "  Bound to worktree: %s\n", chat.WorktreeID)
	}
	return chat, nil
}

// List lists chats with optional filters.
func (a *ChatAdapter) List(ctx context.Context, req primary.ListChatsRequest) ([]*primary.Chat, error) {
	chats, err := a.service.ListChats(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	if len(chats) == 0 {
		fmt.Fprintln(a.out, "No chats found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Create your first chat:")
		fmt.Fprintln(a.out, "  acode chat new \"My first chat\"")
		return chats, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tWORKTREE\tSYNC\tUPDATED")
	fmt.Fprintln(w, "--\t-----\t--------\t----\t-------")

	for _, chat := range chats {
		title := chat.Title
		if chat.IsDeleted {
			title += " (deleted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			chat.ID,
			title,
			chat.WorktreeID,
			chat.SyncStatus,
			chat.UpdatedAt,
		)
	}

	w.Flush()
	return chats, nil
}

// Show displays details for a single chat, including its runs.
func (a *ChatAdapter) Show(ctx context.Context, chatID string) (*primary.Chat, error) {
	chat, err := a.service.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	fmt.Fprintf(a.out, "\nChat: %s\n", chat.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", chat.Title)
	if len(chat.Tags) > 0 {
		fmt.Fprintf(a.out, "Tags:     %v\n", chat.Tags)
	}
	if chat.WorktreeID != "" {
		fmt.Fprintf(a.out, "Worktree: %s\n", chat.WorktreeID)
	}
	fmt.Fprintf(a.out, "Sync:     %s (version %d)\n", chat.SyncStatus, chat.Version)
	fmt.Fprintf(a.out, "Created:  %s\n", chat.CreatedAt)
	fmt.Fprintf(a.out, "Updated:  %s\n", chat.UpdatedAt)
	if chat.IsDeleted {
		fmt.Fprintf(a.out, "Deleted:  %s\n", chat.DeletedAt)
	}

	runs, err := a.service.ListRuns(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) > 0 {
		fmt.Fprintf(a.out, "\nRuns (%d):\n", len(runs))
		for _, run := range runs {
			fmt.Fprintf(a.out, "  #%d %s [%s] %s, %d tokens\n",
				run.SequenceNumber, run.ID, run.Status, run.ModelID, run.TokensIn+run.TokensOut)
		}
	}
	fmt.Fprintln(a.out)

	return chat, nil
}

// Rename updates a chat title.
func (a *ChatAdapter) Rename(ctx context.Context, chatID, title string) error {
	chat, err := a.service.RenameChat(ctx, chatID, title)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Renamed chat %s: %s\n", chat.ID, chat.Title)
	return nil
}

// Tag adds a tag to a chat.
func (a *ChatAdapter) Tag(ctx context.Context, chatID, tag string) error {
	chat, err := a.service.TagChat(ctx, chatID, tag)
	if err != nil {
		return fmt.Errorf("failed to tag chat: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Tagged chat %s: %v\n", chat.ID, chat.Tags)
	return nil
}

// Delete soft-deletes a chat.
func (a *ChatAdapter) Delete(ctx context.Context, chatID string) error {
	if err := a.service.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Deleted chat %s (restore with: acode chat restore %s)\n", chatID, chatID)
	return nil
}

// Restore reverses a soft delete.
func (a *ChatAdapter) Restore(ctx context.Context, chatID string) error {
	chat, err := a.service.RestoreChat(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to restore chat: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Restored chat %s: %s\n", chat.ID, chat.Title)
	return nil
}

// Purge physically removes chats soft-deleted longer ago than retention.
func (a *ChatAdapter) Purge(ctx context.Context, retention time.Duration) error {
	purged, err := a.service.PurgeDeletedChats(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return fmt.Errorf("failed to purge chats: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Purged %d chat(s)\n", purged)
	return nil
}
