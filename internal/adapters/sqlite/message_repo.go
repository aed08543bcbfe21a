package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/ports/secondary"
)

// MessageRepository implements secondary.MessageRepository with SQLite.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new SQLite message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = "id, run_id, chat_id, role, content, sequence_number, sync_status, version, created_at, updated_at"

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *conversation.Message) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO messages ("+messageColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		message.ID, message.RunID, message.ChatID, message.Role, message.Content,
		message.SequenceNumber, message.SyncStatus, message.Version,
		formatTime(message.CreatedAt), formatTime(message.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by its ID.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*conversation.Message, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id)

	message, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("message %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// Update conditionally writes the message, requiring the stored version to
// equal the in-memory version minus one.
func (r *MessageRepository) Update(ctx context.Context, message *conversation.Message) error {
	expectedVersion := message.Version - 1
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages
		 SET content = ?, sync_status = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		message.Content, message.SyncStatus, message.Version, formatTime(message.UpdatedAt),
		message.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &secondary.ConflictError{EntityType: "message", EntityID: message.ID, ExpectedVersion: expectedVersion}
	}

	return nil
}

// UpdateSyncStatus writes only the sync status, leaving the version alone.
func (r *MessageRepository) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE messages SET sync_status = ? WHERE id = ?", syncStatus, id)
	if err != nil {
		return fmt.Errorf("failed to update message sync status: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return fmt.Errorf("message %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// ListByRun retrieves messages for a run ordered by sequence number.
func (r *MessageRepository) ListByRun(ctx context.Context, runID string) ([]*conversation.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE run_id = ? ORDER BY sequence_number ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*conversation.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// NextSequenceNumber returns the next message sequence number for a run.
func (r *MessageRepository) NextSequenceNumber(ctx context.Context, runID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(sequence_number) FROM messages WHERE run_id = ?", runID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get next message sequence: %w", err)
	}
	return int(max.Int64) + 1, nil
}

func scanMessage(row scanner) (*conversation.Message, error) {
	var (
		id, runID, chatID, role, content, syncStatus string
		seq, version                                 int
		createdAt, updatedAt                         sql.NullString
	)

	err := row.Scan(&id, &runID, &chatID, &role, &content, &seq, &syncStatus, &version, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return conversation.ReconstituteMessage(
		id, runID, chatID, role, content, seq, syncStatus, version,
		parseTime(createdAt), parseTime(updatedAt),
	), nil
}
