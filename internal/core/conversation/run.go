package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCancelled = "cancelled"
)

// Run is a single inference invocation within a chat.
type Run struct {
	ID             string
	ChatID         string
	ModelID        string
	Status         string
	StartedAt      time.Time
	CompletedAt    time.Time
	TokensIn       int
	TokensOut      int
	SequenceNumber int
	ErrorMessage   string
	SyncStatus     string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewRun creates a running run at version 1.
func NewRun(chatID, modelID string, sequenceNumber int) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		ModelID:        modelID,
		Status:         RunRunning,
		StartedAt:      now,
		SequenceNumber: sequenceNumber,
		SyncStatus:     SyncPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ReconstituteRun rebuilds a run from persisted fields.
func ReconstituteRun(id, chatID, modelID, status string, startedAt, completedAt time.Time, tokensIn, tokensOut, sequenceNumber int, errorMessage, syncStatus string, version int, createdAt, updatedAt time.Time) *Run {
	return &Run{
		ID:             id,
		ChatID:         chatID,
		ModelID:        modelID,
		Status:         status,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
		TokensIn:       tokensIn,
		TokensOut:      tokensOut,
		SequenceNumber: sequenceNumber,
		ErrorMessage:   errorMessage,
		SyncStatus:     syncStatus,
		Version:        version,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// TotalTokens is the combined input and output token count.
func (r *Run) TotalTokens() int {
	return r.TokensIn + r.TokensOut
}

// Complete marks the run successful with its token usage.
func (r *Run) Complete(tokensIn, tokensOut int) {
	r.Status = RunCompleted
	r.CompletedAt = time.Now().UTC()
	r.TokensIn = tokensIn
	r.TokensOut = tokensOut
	r.touch()
}

// Fail marks the run failed with an error message.
func (r *Run) Fail(errorMessage string) {
	r.Status = RunFailed
	r.CompletedAt = time.Now().UTC()
	r.ErrorMessage = errorMessage
	r.touch()
}

// Cancel marks the run cancelled.
func (r *Run) Cancel() {
	r.Status = RunCancelled
	r.CompletedAt = time.Now().UTC()
	r.touch()
}

// MarkSynced records remote acknowledgement of the current version.
func (r *Run) MarkSynced() {
	r.SyncStatus = SyncSynced
}

// MarkConflict records a remote rejection of the current version.
func (r *Run) MarkConflict() {
	r.SyncStatus = SyncConflict
}

func (r *Run) touch() {
	r.UpdatedAt = time.Now().UTC()
	r.Version++
	r.SyncStatus = SyncPending
}
