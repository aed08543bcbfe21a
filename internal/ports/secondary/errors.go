package secondary

import (
	"errors"
	"fmt"
)

// Errors shared across persistence ports.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict is returned when an optimistic-concurrency
	// update matched zero rows: the caller's view was stale and must be
	// re-fetched. The newer state is never overwritten or merged.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrBindingExists is returned when creating a binding for an
	// already-bound worktree or chat.
	ErrBindingExists = errors.New("binding already exists")
)

// ConflictError reports which entity and version failed the optimistic
// concurrency check.
type ConflictError struct {
	EntityType      string
	EntityID        string
	ExpectedVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on %s %s: stored version is not %d",
		e.EntityType, e.EntityID, e.ExpectedVersion)
}

func (e *ConflictError) Unwrap() error { return ErrConcurrencyConflict }

// BindingExistsError reports the existing binding that blocked a create.
type BindingExistsError struct {
	WorktreeID string
	ChatID     string
}

func (e *BindingExistsError) Error() string {
	return fmt.Sprintf("worktree %s is already bound to chat %s", e.WorktreeID, e.ChatID)
}

func (e *BindingExistsError) Unwrap() error { return ErrBindingExists }
