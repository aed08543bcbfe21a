package app

import (
	"context"
	"errors"
	"testing"

	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

func TestBindingService_CreateBinding(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	binding, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-1"})
	if err != nil {
		t.Fatalf("CreateBinding failed: %v", err)
	}
	if binding.WorktreeID != "wt-1" || binding.ChatID != "chat-1" {
		t.Errorf("unexpected binding: %+v", binding)
	}

	chatID, bound, err := svc.GetBoundChat(ctx, "wt-1")
	if err != nil {
		t.Fatalf("GetBoundChat failed: %v", err)
	}
	if !bound || chatID != "chat-1" {
		t.Errorf("expected wt-1 bound to chat-1, got bound=%v chat=%s", bound, chatID)
	}
}

func TestBindingService_CreateBinding_WorktreeAlreadyBound(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-1"}); err != nil {
		t.Fatalf("CreateBinding failed: %v", err)
	}

	_, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-2"})
	if !errors.Is(err, secondary.ErrBindingExists) {
		t.Fatalf("expected ErrBindingExists, got %v", err)
	}

	// The error names the existing binding so the CLI can explain it.
	var exists *secondary.BindingExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected *BindingExistsError, got %T", err)
	}
	if exists.ChatID != "chat-1" {
		t.Errorf("error should name chat-1, got %s", exists.ChatID)
	}
}

func TestBindingService_CreateBinding_ChatAlreadyBound(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-1"}); err != nil {
		t.Fatalf("CreateBinding failed: %v", err)
	}

	_, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-2", ChatID: "chat-1"})
	if !errors.Is(err, secondary.ErrBindingExists) {
		t.Fatalf("expected ErrBindingExists, got %v", err)
	}
}

func TestBindingService_RebindAfterDelete(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	// wt-1 bound to chat-1; rebinding to chat-2 fails until unbound.
	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-1"}); err != nil {
		t.Fatalf("CreateBinding failed: %v", err)
	}
	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-2"}); err == nil {
		t.Fatal("expected rebind to fail while bound")
	}

	if err := svc.DeleteBindingByWorktree(ctx, "wt-1"); err != nil {
		t.Fatalf("DeleteBindingByWorktree failed: %v", err)
	}

	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-2"}); err != nil {
		t.Fatalf("rebind after delete failed: %v", err)
	}

	chatID, bound, err := svc.GetBoundChat(ctx, "wt-1")
	if err != nil {
		t.Fatalf("GetBoundChat failed: %v", err)
	}
	if !bound || chatID != "chat-2" {
		t.Errorf("expected wt-1 bound to chat-2, got bound=%v chat=%s", bound, chatID)
	}
}

func TestBindingService_DeleteIsIdempotent(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	if err := svc.DeleteBindingByWorktree(ctx, "never-bound"); err != nil {
		t.Errorf("delete of absent binding should be a no-op: %v", err)
	}
	if err := svc.DeleteBindingByChat(ctx, "never-bound"); err != nil {
		t.Errorf("delete of absent binding should be a no-op: %v", err)
	}
}

func TestBindingService_GetBoundWorktree(t *testing.T) {
	svc := NewBindingService(newMockBindingRepo())
	ctx := context.Background()

	if _, err := svc.CreateBinding(ctx, primary.CreateBindingRequest{WorktreeID: "wt-1", ChatID: "chat-1"}); err != nil {
		t.Fatalf("CreateBinding failed: %v", err)
	}

	worktreeID, bound, err := svc.GetBoundWorktree(ctx, "chat-1")
	if err != nil {
		t.Fatalf("GetBoundWorktree failed: %v", err)
	}
	if !bound || worktreeID != "wt-1" {
		t.Errorf("expected chat-1 bound to wt-1, got bound=%v wt=%s", bound, worktreeID)
	}

	_, bound, err = svc.GetBoundWorktree(ctx, "chat-unbound")
	if err != nil {
		t.Fatalf("GetBoundWorktree failed: %v", err)
	}
	if bound {
		t.Error("expected unbound chat")
	}
}
