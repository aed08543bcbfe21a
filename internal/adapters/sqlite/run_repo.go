package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = "id, chat_id, model_id, status, started_at, completed_at, tokens_in, tokens_out, sequence_number, error_message, sync_status, version, created_at, updated_at"

// Create persists a new run.
func (r *RunRepository) Create(ctx context.Context, run *conversation.Run) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.ChatID, run.ModelID, run.Status,
		formatTime(run.StartedAt), formatTime(run.CompletedAt),
		run.TokensIn, run.TokensOut, run.SequenceNumber,
		nullString(run.ErrorMessage), run.SyncStatus, run.Version,
		formatTime(run.CreatedAt), formatTime(run.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*conversation.Run, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// Update conditionally writes the run, requiring the stored version to equal
// the in-memory version minus one.
func (r *RunRepository) Update(ctx context.Context, run *conversation.Run) error {
	expectedVersion := run.Version - 1
	result, err := r.db.ExecContext(ctx,
		`UPDATE runs
		 SET status = ?, completed_at = ?, tokens_in = ?, tokens_out = ?,
		     error_message = ?, sync_status = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		run.Status, formatTime(run.CompletedAt), run.TokensIn, run.TokensOut,
		nullString(run.ErrorMessage), run.SyncStatus, run.Version, formatTime(run.UpdatedAt),
		run.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return &secondary.ConflictError{EntityType: "run", EntityID: run.ID, ExpectedVersion: expectedVersion}
	}

	return nil
}

// UpdateSyncStatus writes only the sync status, leaving the version alone.
func (r *RunRepository) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE runs SET sync_status = ? WHERE id = ?", syncStatus, id)
	if err != nil {
		return fmt.Errorf("failed to update run sync status: %w", err)
	}
	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	return nil
}

// ListByChat retrieves runs for a chat ordered by sequence number.
func (r *RunRepository) ListByChat(ctx context.Context, chatID string) ([]*conversation.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE chat_id = ? ORDER BY sequence_number ASC",
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*conversation.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// NextSequenceNumber returns the next run sequence number for a chat.
func (r *RunRepository) NextSequenceNumber(ctx context.Context, chatID string) (int, error) {
	var max sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT MAX(sequence_number) FROM runs WHERE chat_id = ?", chatID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get next run sequence: %w", err)
	}
	return int(max.Int64) + 1, nil
}

func scanRun(row scanner) (*conversation.Run, error) {
	var (
		id, chatID, modelID, status, syncStatus string
		errorMessage                            sql.NullString
		tokensIn, tokensOut, seq, version       int
		startedAt, completedAt                  sql.NullString
		createdAt, updatedAt                    sql.NullString
	)

	err := row.Scan(&id, &chatID, &modelID, &status, &startedAt, &completedAt,
		&tokensIn, &tokensOut, &seq, &errorMessage, &syncStatus, &version,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return conversation.ReconstituteRun(
		id, chatID, modelID, status,
		parseTime(startedAt), parseTime(completedAt),
		tokensIn, tokensOut, seq,
		errorMessage.String, syncStatus, version,
		parseTime(createdAt), parseTime(updatedAt),
	), nil
}
