package conversation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDeleted is returned when mutating a soft-deleted chat.
var ErrDeleted = errors.New("chat is deleted")

// MaxTitleLength bounds chat titles.
const MaxTitleLength = 200

// Chat is a conversation session aggregate.
type Chat struct {
	ID         string
	Title      string
	Tags       []string
	WorktreeID string // read-only projection; worktree_bindings is authoritative
	IsDeleted  bool
	DeletedAt  time.Time
	SyncStatus string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewChat creates a chat at version 1 with sync pending.
func NewChat(title, worktreeID string) (*Chat, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Chat{
		ID:         uuid.NewString(),
		Title:      title,
		Tags:       []string{},
		WorktreeID: worktreeID,
		SyncStatus: SyncPending,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ReconstituteChat rebuilds a chat from persisted fields.
// Every column maps to an explicit parameter; no reflection.
func ReconstituteChat(id, title string, tags []string, worktreeID string, isDeleted bool, deletedAt time.Time, syncStatus string, version int, createdAt, updatedAt time.Time) *Chat {
	if tags == nil {
		tags = []string{}
	}
	return &Chat{
		ID:         id,
		Title:      title,
		Tags:       tags,
		WorktreeID: worktreeID,
		IsDeleted:  isDeleted,
		DeletedAt:  deletedAt,
		SyncStatus: syncStatus,
		Version:    version,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// UpdateTitle renames the chat.
func (c *Chat) UpdateTitle(title string) error {
	if err := validateTitle(title); err != nil {
		return err
	}
	if c.IsDeleted {
		return ErrDeleted
	}
	c.Title = title
	c.touch()
	return nil
}

// AddTag appends a tag, ignoring duplicates.
func (c *Chat) AddTag(tag string) error {
	if c.IsDeleted {
		return ErrDeleted
	}
	for _, t := range c.Tags {
		if t == tag {
			return nil
		}
	}
	c.Tags = append(c.Tags, tag)
	c.touch()
	return nil
}

// RemoveTag removes a tag, reporting whether it was present.
func (c *Chat) RemoveTag(tag string) bool {
	for i, t := range c.Tags {
		if t == tag {
			c.Tags = append(c.Tags[:i], c.Tags[i+1:]...)
			c.touch()
			return true
		}
	}
	return false
}

// BindToWorktree records the worktree projection on the chat.
func (c *Chat) BindToWorktree(worktreeID string) {
	c.WorktreeID = worktreeID
	c.touch()
}

// UnbindWorktree clears the worktree projection.
func (c *Chat) UnbindWorktree() {
	c.WorktreeID = ""
	c.touch()
}

// Delete soft-deletes the chat. Idempotent.
func (c *Chat) Delete() {
	if c.IsDeleted {
		return
	}
	now := time.Now().UTC()
	c.IsDeleted = true
	c.DeletedAt = now
	c.UpdatedAt = now
	c.Version++
	c.SyncStatus = SyncPending
}

// Restore reverses a soft delete. Idempotent.
func (c *Chat) Restore() {
	if !c.IsDeleted {
		return
	}
	c.IsDeleted = false
	c.DeletedAt = time.Time{}
	c.touch()
}

// MarkSynced records remote acknowledgement. Does not bump the version:
// sync status tracks delivery of the current version, not a new state.
func (c *Chat) MarkSynced() {
	c.SyncStatus = SyncSynced
}

// MarkConflict records a remote rejection of the current version.
func (c *Chat) MarkConflict() {
	c.SyncStatus = SyncConflict
}

func (c *Chat) touch() {
	c.UpdatedAt = time.Now().UTC()
	c.Version++
	c.SyncStatus = SyncPending
}

func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return errors.New("chat title cannot be empty")
	}
	if len(trimmed) > MaxTitleLength {
		return fmt.Errorf("chat title exceeds %d characters", MaxTitleLength)
	}
	return nil
}
