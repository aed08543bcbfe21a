// Package app contains the application services implementing the primary ports.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// BindingServiceImpl implements the BindingService interface.
// At most one binding exists per worktree and per chat; the service checks
// both sides before writing, and the schema's PK and UNIQUE constraints
// back the invariant against races.
type BindingServiceImpl struct {
	bindingRepo secondary.BindingRepository
}

// NewBindingService creates a new BindingService with injected dependencies.
func NewBindingService(bindingRepo secondary.BindingRepository) *BindingServiceImpl {
	return &BindingServiceImpl{
		bindingRepo: bindingRepo,
	}
}

// CreateBinding binds a worktree to a chat.
func (s *BindingServiceImpl) CreateBinding(ctx context.Context, req primary.CreateBindingRequest) (*primary.Binding, error) {
	if req.WorktreeID == "" {
		return nil, fmt.Errorf("worktree ID cannot be empty")
	}
	if req.ChatID == "" {
		return nil, fmt.Errorf("chat ID cannot be empty")
	}

	existing, err := s.bindingRepo.GetByWorktree(ctx, req.WorktreeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check worktree binding: %w", err)
	}
	if existing != nil {
		return nil, &secondary.BindingExistsError{WorktreeID: existing.WorktreeID, ChatID: existing.ChatID}
	}

	existing, err = s.bindingRepo.GetByChat(ctx, req.ChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat binding: %w", err)
	}
	if existing != nil {
		return nil, &secondary.BindingExistsError{WorktreeID: existing.WorktreeID, ChatID: existing.ChatID}
	}

	record := &secondary.BindingRecord{
		WorktreeID: req.WorktreeID,
		ChatID:     req.ChatID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.bindingRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create binding: %w", err)
	}

	return recordToBinding(record), nil
}

// DeleteBindingByWorktree removes the binding for a worktree.
func (s *BindingServiceImpl) DeleteBindingByWorktree(ctx context.Context, worktreeID string) error {
	if err := s.bindingRepo.DeleteByWorktree(ctx, worktreeID); err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	return nil
}

// DeleteBindingByChat removes the binding for a chat.
func (s *BindingServiceImpl) DeleteBindingByChat(ctx context.Context, chatID string) error {
	if err := s.bindingRepo.DeleteByChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	return nil
}

// GetBoundChat returns the chat bound to a worktree.
func (s *BindingServiceImpl) GetBoundChat(ctx context.Context, worktreeID string) (string, bool, error) {
	record, err := s.bindingRepo.GetByWorktree(ctx, worktreeID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get binding: %w", err)
	}
	if record == nil {
		return "", false, nil
	}
	return record.ChatID, true, nil
}

// GetBoundWorktree returns the worktree bound to a chat.
func (s *BindingServiceImpl) GetBoundWorktree(ctx context.Context, chatID string) (string, bool, error) {
	record, err := s.bindingRepo.GetByChat(ctx, chatID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get binding: %w", err)
	}
	if record == nil {
		return "", false, nil
	}
	return record.WorktreeID, true, nil
}

// ListBindings returns all bindings.
func (s *BindingServiceImpl) ListBindings(ctx context.Context) ([]*primary.Binding, error) {
	records, err := s.bindingRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}

	bindings := make([]*primary.Binding, 0, len(records))
	for _, record := range records {
		bindings = append(bindings, recordToBinding(record))
	}
	return bindings, nil
}

func recordToBinding(record *secondary.BindingRecord) *primary.Binding {
	return &primary.Binding{
		WorktreeID: record.WorktreeID,
		ChatID:     record.ChatID,
		CreatedAt:  record.CreatedAt.UTC().Format(time.RFC3339),
	}
}
