package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/ports/secondary"
)

// OutboxRepository implements secondary.OutboxRepository with SQLite.
// Selection for processing is strictly FIFO on created_at, gated by
// next_retry_at so requeued entries wait out their backoff.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new SQLite outbox repository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const outboxColumns = "id, idempotency_key, entity_type, entity_id, operation, payload, status, retry_count, next_retry_at, processing_started_at, completed_at, created_at, last_error"

// Add persists a new entry.
func (r *OutboxRepository) Add(ctx context.Context, entry *outbox.Entry) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO outbox ("+outboxColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.IdempotencyKey, entry.EntityType, entry.EntityID,
		entry.Operation, entry.Payload, entry.Status, entry.RetryCount,
		formatTime(entry.NextRetryAt), formatTime(entry.ProcessingStartedAt),
		formatTime(entry.CompletedAt), formatTime(entry.CreatedAt),
		nullString(entry.LastError),
	)
	if err != nil {
		return fmt.Errorf("failed to add outbox entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its ID.
func (r *OutboxRepository) GetByID(ctx context.Context, id string) (*outbox.Entry, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+outboxColumns+" FROM outbox WHERE id = ?", id)

	entry, err := scanOutboxEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("outbox entry %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox entry: %w", err)
	}

	return entry, nil
}

// GetPending retrieves up to limit eligible entries in FIFO order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int, now time.Time) ([]*outbox.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox
		 WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		 ORDER BY created_at ASC
		 LIMIT ?`,
		formatTime(now), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending outbox entries: %w", err)
	}
	defer rows.Close()

	return collectOutboxEntries(rows)
}

// Update persists entry state transitions.
func (r *OutboxRepository) Update(ctx context.Context, entry *outbox.Entry) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE outbox
		 SET status = ?, retry_count = ?, next_retry_at = ?,
		     processing_started_at = ?, completed_at = ?, last_error = ?
		 WHERE id = ?`,
		entry.Status, entry.RetryCount, formatTime(entry.NextRetryAt),
		formatTime(entry.ProcessingStartedAt), formatTime(entry.CompletedAt),
		nullString(entry.LastError), entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update outbox entry: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return fmt.Errorf("outbox entry %s: %w", entry.ID, secondary.ErrNotFound)
	}

	return nil
}

// Delete removes an entry.
func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM outbox WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete outbox entry: %w", err)
	}
	return nil
}

// DeleteCompleted removes completed entries finished before the cutoff.
func (r *OutboxRepository) DeleteCompleted(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM outbox WHERE status = 'completed' AND completed_at < ?",
		formatTime(before),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed outbox entries: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}

// ListFailed retrieves dead-letter entries ordered by creation time.
func (r *OutboxRepository) ListFailed(ctx context.Context) ([]*outbox.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+outboxColumns+" FROM outbox WHERE status = 'failed' ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed outbox entries: %w", err)
	}
	defer rows.Close()

	return collectOutboxEntries(rows)
}

// CountPending returns the number of pending entries.
func (r *OutboxRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM outbox WHERE status = 'pending'",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox entries: %w", err)
	}
	return count, nil
}

// OldestPendingCreatedAt returns the creation time of the oldest pending
// entry, or the zero time when the queue is drained.
func (r *OutboxRepository) OldestPendingCreatedAt(ctx context.Context) (time.Time, error) {
	var oldest sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT MIN(created_at) FROM outbox WHERE status = 'pending'",
	).Scan(&oldest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get oldest pending outbox entry: %w", err)
	}
	return parseTime(oldest), nil
}

func collectOutboxEntries(rows *sql.Rows) ([]*outbox.Entry, error) {
	var entries []*outbox.Entry
	for rows.Next() {
		entry, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanOutboxEntry(row scanner) (*outbox.Entry, error) {
	var (
		id, key, entityType, entityID, operation, payload, status string
		lastError                                                 sql.NullString
		retryCount                                                int
		nextRetryAt, processingStartedAt, completedAt, createdAt  sql.NullString
	)

	err := row.Scan(&id, &key, &entityType, &entityID, &operation, &payload,
		&status, &retryCount, &nextRetryAt, &processingStartedAt, &completedAt,
		&createdAt, &lastError)
	if err != nil {
		return nil, err
	}

	return outbox.ReconstituteEntry(
		id, key, entityType, entityID, operation, payload, status, retryCount,
		parseTime(nextRetryAt), parseTime(processingStartedAt),
		parseTime(completedAt), parseTime(createdAt), lastError.String,
	), nil
}
