package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/acode/internal/ports/secondary"
)

// BindingRepository implements secondary.BindingRepository with SQLite.
// The PRIMARY KEY on worktree_id and UNIQUE on chat_id back the one-to-one
// invariant at the storage layer.
type BindingRepository struct {
	db *sql.DB
}

// NewBindingRepository creates a new SQLite binding repository.
func NewBindingRepository(db *sql.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// GetByWorktree retrieves the binding for a worktree, if any.
func (r *BindingRepository) GetByWorktree(ctx context.Context, worktreeID string) (*secondary.BindingRecord, error) {
	return r.getOne(ctx, "worktree_id", worktreeID)
}

// GetByChat retrieves the binding for a chat, if any.
func (r *BindingRepository) GetByChat(ctx context.Context, chatID string) (*secondary.BindingRecord, error) {
	return r.getOne(ctx, "chat_id", chatID)
}

func (r *BindingRepository) getOne(ctx context.Context, column, value string) (*secondary.BindingRecord, error) {
	var createdAt sql.NullString
	record := &secondary.BindingRecord{}

	err := r.db.QueryRowContext(ctx,
		"SELECT worktree_id, chat_id, created_at FROM worktree_bindings WHERE "+column+" = ?",
		value,
	).Scan(&record.WorktreeID, &record.ChatID, &createdAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}

	record.CreatedAt = parseTime(createdAt)
	return record, nil
}

// Create persists a new binding.
func (r *BindingRepository) Create(ctx context.Context, binding *secondary.BindingRecord) error {
	createdAt := binding.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO worktree_bindings (worktree_id, chat_id, created_at) VALUES (?, ?, ?)",
		binding.WorktreeID, binding.ChatID, formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create binding: %w", err)
	}

	return nil
}

// DeleteByWorktree removes the binding for a worktree. No-op if absent.
func (r *BindingRepository) DeleteByWorktree(ctx context.Context, worktreeID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM worktree_bindings WHERE worktree_id = ?", worktreeID)
	if err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	return nil
}

// DeleteByChat removes the binding for a chat. No-op if absent.
func (r *BindingRepository) DeleteByChat(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM worktree_bindings WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete binding: %w", err)
	}
	return nil
}

// ListAll retrieves every binding.
func (r *BindingRepository) ListAll(ctx context.Context) ([]*secondary.BindingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT worktree_id, chat_id, created_at FROM worktree_bindings ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []*secondary.BindingRecord
	for rows.Next() {
		var createdAt sql.NullString
		record := &secondary.BindingRecord{}
		if err := rows.Scan(&record.WorktreeID, &record.ChatID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		record.CreatedAt = parseTime(createdAt)
		bindings = append(bindings, record)
	}

	return bindings, rows.Err()
}
