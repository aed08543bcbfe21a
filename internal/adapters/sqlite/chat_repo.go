package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/ports/secondary"
)

// ChatRepository implements secondary.ChatRepository with SQLite.
// Updates are conditional on the expected prior version (optimistic
// concurrency): a zero-row match raises a conflict, never a silent
// overwrite.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new SQLite chat repository.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

const chatColumns = "id, title, tags, worktree_id, is_deleted, deleted_at, sync_status, version, created_at, updated_at"

// Create persists a new chat.
func (r *ChatRepository) Create(ctx context.Context, chat *conversation.Chat) error {
	tags, err := json.Marshal(chat.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO chats ("+chatColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		chat.ID, chat.Title, string(tags), nullString(chat.WorktreeID),
		boolToInt(chat.IsDeleted), formatTime(chat.DeletedAt),
		chat.SyncStatus, chat.Version, formatTime(chat.CreatedAt), formatTime(chat.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

// GetByID retrieves a chat by its ID.
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*conversation.Chat, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+chatColumns+" FROM chats WHERE id = ?", id)

	chat, err := scanChat(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chat %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

// Update conditionally writes the chat. The predicate requires the stored
// version to equal the in-memory version minus one; when no row matches,
// the caller's view was stale and a ConflictError is returned without
// fetching anything further.
func (r *ChatRepository) Update(ctx context.Context, chat *conversation.Chat) error {
	tags, err := json.Marshal(chat.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	expectedVersion := chat.Version - 1
	result, err := r.db.ExecContext(ctx,
		`UPDATE chats
		 SET title = ?, tags = ?, worktree_id = ?, is_deleted = ?, deleted_at = ?,
		     sync_status = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		chat.Title, string(tags), nullString(chat.WorktreeID),
		boolToInt(chat.IsDeleted), formatTime(chat.DeletedAt),
		chat.SyncStatus, chat.Version, formatTime(chat.UpdatedAt),
		chat.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &secondary.ConflictError{EntityType: "chat", EntityID: chat.ID, ExpectedVersion: expectedVersion}
	}

	return nil
}

// UpdateSyncStatus writes only the sync status, leaving the version alone.
func (r *ChatRepository) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE chats SET sync_status = ? WHERE id = ?", syncStatus, id)
	if err != nil {
		return fmt.Errorf("failed to update chat sync status: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return fmt.Errorf("chat %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// List retrieves chats matching the filters, ordered by updated_at
// descending (id as tiebreak) for stable pagination.
func (r *ChatRepository) List(ctx context.Context, filters secondary.ChatFilters) ([]*conversation.Chat, error) {
	query := "SELECT " + chatColumns + " FROM chats WHERE 1=1"
	var args []any

	if !filters.IncludeDeleted {
		query += " AND is_deleted = 0"
	}
	if filters.WorktreeID != "" {
		query += " AND worktree_id = ?"
		args = append(args, filters.WorktreeID)
	}
	if !filters.CreatedAfter.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, formatTime(filters.CreatedAfter))
	}
	if !filters.CreatedBefore.IsZero() {
		query += " AND created_at < ?"
		args = append(args, formatTime(filters.CreatedBefore))
	}

	query += " ORDER BY updated_at DESC, id"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*conversation.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	return chats, rows.Err()
}

// PurgeDeleted physically removes chats soft-deleted before the cutoff.
func (r *ChatRepository) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM chats WHERE is_deleted = 1 AND deleted_at < ?",
		formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted chats: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanChat(row scanner) (*conversation.Chat, error) {
	var (
		id, title, tagsJSON, syncStatus string
		worktreeID                      sql.NullString
		isDeleted, version              int
		deletedAt, createdAt, updatedAt sql.NullString
	)

	err := row.Scan(&id, &title, &tagsJSON, &worktreeID, &isDeleted, &deletedAt, &syncStatus, &version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	return conversation.ReconstituteChat(
		id, title, tags, worktreeID.String,
		isDeleted == 1, parseTime(deletedAt), syncStatus, version,
		parseTime(createdAt), parseTime(updatedAt),
	), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
