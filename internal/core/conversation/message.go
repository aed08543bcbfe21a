package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single utterance within a run.
type Message struct {
	ID             string
	RunID          string
	ChatID         string
	Role           string
	Content        string
	SequenceNumber int
	SyncStatus     string
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMessage creates a message at version 1.
func NewMessage(runID, chatID, role, content string, sequenceNumber int) *Message {
	now := time.Now().UTC()
	return &Message{
		ID:             uuid.NewString(),
		RunID:          runID,
		ChatID:         chatID,
		Role:           role,
		Content:        content,
		SequenceNumber: sequenceNumber,
		SyncStatus:     SyncPending,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ReconstituteMessage rebuilds a message from persisted fields.
func ReconstituteMessage(id, runID, chatID, role, content string, sequenceNumber int, syncStatus string, version int, createdAt, updatedAt time.Time) *Message {
	return &Message{
		ID:             id,
		RunID:          runID,
		ChatID:         chatID,
		Role:           role,
		Content:        content,
		SequenceNumber: sequenceNumber,
		SyncStatus:     syncStatus,
		Version:        version,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// SetContent replaces the message content.
func (m *Message) SetContent(content string) {
	m.Content = content
	m.UpdatedAt = time.Now().UTC()
	m.Version++
	m.SyncStatus = SyncPending
}

// MarkSynced records remote acknowledgement of the current version.
func (m *Message) MarkSynced() {
	m.SyncStatus = SyncSynced
}

// MarkConflict records a remote rejection of the current version.
func (m *Message) MarkConflict() {
	m.SyncStatus = SyncConflict
}
