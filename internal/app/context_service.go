package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/acode/internal/core/worktree"
	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// ContextServiceImpl implements the ContextService interface.
// Resolution is detection plus a binding lookup; being outside a worktree
// or inside an unbound one are normal outcomes, not errors.
type ContextServiceImpl struct {
	bindingRepo secondary.BindingRepository
	publisher   secondary.ContextEventPublisher
}

// NewContextService creates a new ContextService with injected dependencies.
func NewContextService(bindingRepo secondary.BindingRepository, publisher secondary.ContextEventPublisher) *ContextServiceImpl {
	return &ContextServiceImpl{
		bindingRepo: bindingRepo,
		publisher:   publisher,
	}
}

// DetectWorktree finds the enclosing Git worktree for a path.
func (s *ContextServiceImpl) DetectWorktree(ctx context.Context, path string) (*primary.WorktreeInfo, bool, error) {
	wt, err := worktree.Detect(path)
	if errors.Is(err, worktree.ErrNotInWorktree) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to detect worktree: %w", err)
	}

	return &primary.WorktreeInfo{ID: wt.ID, Path: wt.Path}, true, nil
}

// ResolveActiveChat detects the worktree for a path and returns its bound chat.
func (s *ContextServiceImpl) ResolveActiveChat(ctx context.Context, path string) (*primary.ActiveContext, error) {
	info, found, err := s.DetectWorktree(ctx, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return &primary.ActiveContext{}, nil
	}

	record, err := s.bindingRepo.GetByWorktree(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	if record == nil {
		return &primary.ActiveContext{Worktree: info}, nil
	}

	return &primary.ActiveContext{
		Worktree: info,
		ChatID:   record.ChatID,
		Bound:    true,
	}, nil
}

// NotifyContextSwitch publishes a context-switch event for observers.
func (s *ContextServiceImpl) NotifyContextSwitch(ctx context.Context, fromChatID, toChatID string) error {
	event := secondary.ContextSwitchEvent{
		FromChatID: fromChatID,
		ToChatID:   toChatID,
		SwitchedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishContextSwitch(ctx, event); err != nil {
		return fmt.Errorf("failed to publish context switch: %w", err)
	}
	return nil
}
