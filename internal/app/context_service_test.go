package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/acode/internal/core/worktree"
	"github.com/example/acode/internal/ports/secondary"
)

// makeWorktree creates a temp directory with a .git subdirectory.
func makeWorktree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("failed to create .git: %v", err)
	}
	return dir
}

func TestContextService_DetectWorktree(t *testing.T) {
	svc := NewContextService(newMockBindingRepo(), &mockPublisher{})
	ctx := context.Background()

	root := makeWorktree(t)
	nested := filepath.Join(root, "internal", "app")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	info, found, err := svc.DetectWorktree(ctx, nested)
	if err != nil {
		t.Fatalf("DetectWorktree failed: %v", err)
	}
	if !found {
		t.Fatal("expected worktree to be found")
	}
	if info.Path != worktree.Canonicalize(root) {
		t.Errorf("expected path %s, got %s", worktree.Canonicalize(root), info.Path)
	}
	if info.ID == "" {
		t.Error("expected non-empty worktree ID")
	}
}

func TestContextService_DetectWorktree_OutsideIsNormal(t *testing.T) {
	svc := NewContextService(newMockBindingRepo(), &mockPublisher{})

	_, found, err := svc.DetectWorktree(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("DetectWorktree failed: %v", err)
	}
	if found {
		t.Error("expected no worktree outside git")
	}
}

func TestContextService_ResolveActiveChat(t *testing.T) {
	bindings := newMockBindingRepo()
	svc := NewContextService(bindings, &mockPublisher{})
	ctx := context.Background()

	root := makeWorktree(t)
	wtID := worktree.IDFromPath(root)

	// Unbound worktree resolves without a chat.
	active, err := svc.ResolveActiveChat(ctx, root)
	if err != nil {
		t.Fatalf("ResolveActiveChat failed: %v", err)
	}
	if active.Worktree == nil {
		t.Fatal("expected detected worktree")
	}
	if active.Bound {
		t.Error("expected unbound worktree")
	}

	if err := bindings.Create(ctx, &secondary.BindingRecord{WorktreeID: wtID, ChatID: "chat-1"}); err != nil {
		t.Fatalf("failed to seed binding: %v", err)
	}

	active, err = svc.ResolveActiveChat(ctx, root)
	if err != nil {
		t.Fatalf("ResolveActiveChat failed: %v", err)
	}
	if !active.Bound || active.ChatID != "chat-1" {
		t.Errorf("expected chat-1 active, got bound=%v chat=%s", active.Bound, active.ChatID)
	}
}

func TestContextService_ResolveActiveChat_OutsideWorktree(t *testing.T) {
	svc := NewContextService(newMockBindingRepo(), &mockPublisher{})

	active, err := svc.ResolveActiveChat(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("ResolveActiveChat failed: %v", err)
	}
	if active.Worktree != nil || active.Bound {
		t.Errorf("expected empty context, got %+v", active)
	}
}

func TestContextService_NotifyContextSwitch(t *testing.T) {
	publisher := &mockPublisher{}
	svc := NewContextService(newMockBindingRepo(), publisher)

	if err := svc.NotifyContextSwitch(context.Background(), "chat-1", "chat-2"); err != nil {
		t.Fatalf("NotifyContextSwitch failed: %v", err)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.FromChatID != "chat-1" || event.ToChatID != "chat-2" {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.SwitchedAt.IsZero() {
		t.Error("expected switched_at to be set")
	}
}
