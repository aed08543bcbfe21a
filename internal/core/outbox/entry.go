// Package outbox implements the durable-delivery outbox: entries record an
// intended remote effect locally before delivery, so delivery can be retried
// without losing or duplicating the source-of-truth intent.
package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Entry statuses. Pending and Processing are transient; Completed and
// Failed are terminal. Failed entries are only reachable again through an
// explicit replay (dead-letter path), never automatically.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Entity operation names carried on entries.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Entry is a single pending state-change awaiting remote delivery.
type Entry struct {
	ID                  string
	IdempotencyKey      string
	EntityType          string
	EntityID            string
	Operation           string
	Payload             string
	Status              string
	RetryCount          int
	NextRetryAt         time.Time
	ProcessingStartedAt time.Time
	CompletedAt         time.Time
	CreatedAt           time.Time
	LastError           string
}

// NewEntry creates a pending entry. The idempotency key is a ULID so the
// remote side can deduplicate redeliveries while preserving creation order.
func NewEntry(entityType, entityID, operation, payload string) (*Entry, error) {
	if entityType == "" {
		return nil, errors.New("entity type cannot be empty")
	}
	if entityID == "" {
		return nil, errors.New("entity ID cannot be empty")
	}
	if operation == "" {
		return nil, errors.New("operation cannot be empty")
	}
	if payload == "" {
		return nil, errors.New("payload cannot be empty")
	}

	return &Entry{
		ID:             uuid.NewString(),
		IdempotencyKey: NewULID(),
		EntityType:     entityType,
		EntityID:       entityID,
		Operation:      operation,
		Payload:        payload,
		Status:         StatusPending,
		RetryCount:     0,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// ReconstituteEntry rebuilds an entry from persisted fields.
// Every column maps to an explicit parameter; no reflection.
func ReconstituteEntry(id, idempotencyKey, entityType, entityID, operation, payload, status string, retryCount int, nextRetryAt, processingStartedAt, completedAt, createdAt time.Time, lastError string) *Entry {
	return &Entry{
		ID:                  id,
		IdempotencyKey:      idempotencyKey,
		EntityType:          entityType,
		EntityID:            entityID,
		Operation:           operation,
		Payload:             payload,
		Status:              status,
		RetryCount:          retryCount,
		NextRetryAt:         nextRetryAt,
		ProcessingStartedAt: processingStartedAt,
		CompletedAt:         completedAt,
		CreatedAt:           createdAt,
		LastError:           lastError,
	}
}

// MarkProcessing transitions pending -> processing.
func (e *Entry) MarkProcessing() {
	e.Status = StatusProcessing
	e.ProcessingStartedAt = time.Now().UTC()
}

// MarkCompleted transitions to the completed terminal state.
func (e *Entry) MarkCompleted() {
	e.Status = StatusCompleted
	e.CompletedAt = time.Now().UTC()
}

// RequeueTransient returns the entry to pending after a transient delivery
// failure, incrementing the retry count and gating re-selection on delay.
func (e *Entry) RequeueTransient(errMessage string, delay time.Duration) {
	e.Status = StatusPending
	e.RetryCount++
	e.LastError = errMessage
	e.NextRetryAt = time.Now().UTC().Add(delay)
}

// MarkFailed transitions to the failed terminal state (dead letter).
func (e *Entry) MarkFailed(errMessage string) {
	e.Status = StatusFailed
	e.LastError = errMessage
}

// Replay resets a failed entry for another delivery attempt.
// The retry budget starts over; the idempotency key is retained so the
// remote side can still deduplicate.
func (e *Entry) Replay() error {
	if e.Status != StatusFailed {
		return errors.New("only failed entries can be replayed")
	}
	e.Status = StatusPending
	e.RetryCount = 0
	e.NextRetryAt = time.Time{}
	e.LastError = ""
	return nil
}

// Eligible reports whether the entry may be selected for processing at now.
func (e *Entry) Eligible(now time.Time) bool {
	if e.Status != StatusPending {
		return false
	}
	return e.NextRetryAt.IsZero() || !e.NextRetryAt.After(now)
}
