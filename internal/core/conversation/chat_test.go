package conversation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewChat(t *testing.T) {
	chat, err := NewChat("Fix the build", "wt-1")
	if err != nil {
		t.Fatalf("NewChat failed: %v", err)
	}
	if chat.Version != 1 {
		t.Errorf("expected version 1, got %d", chat.Version)
	}
	if chat.SyncStatus != SyncPending {
		t.Errorf("expected sync status pending, got %s", chat.SyncStatus)
	}
	if chat.ID == "" {
		t.Error("expected generated ID")
	}
	if chat.IsDeleted {
		t.Error("new chat should not be deleted")
	}
}

func TestNewChat_RejectsInvalidTitle(t *testing.T) {
	if _, err := NewChat("", ""); err == nil {
		t.Error("expected error for empty title")
	}
	if _, err := NewChat("   ", ""); err == nil {
		t.Error("expected error for whitespace title")
	}
	if _, err := NewChat(strings.Repeat("x", MaxTitleLength+1), ""); err == nil {
		t.Error("expected error for oversized title")
	}
}

func TestChat_UpdateTitle_BumpsVersion(t *testing.T) {
	chat, _ := NewChat("Original", "")

	if err := chat.UpdateTitle("Renamed"); err != nil {
		t.Fatalf("UpdateTitle failed: %v", err)
	}
	if chat.Title != "Renamed" {
		t.Errorf("expected renamed title, got %s", chat.Title)
	}
	if chat.Version != 2 {
		t.Errorf("expected version 2, got %d", chat.Version)
	}
	if chat.SyncStatus != SyncPending {
		t.Errorf("expected sync status pending after mutation, got %s", chat.SyncStatus)
	}
}

func TestChat_UpdateTitle_RejectsDeleted(t *testing.T) {
	chat, _ := NewChat("Doomed", "")
	chat.Delete()

	err := chat.UpdateTitle("Resurrected")
	if !errors.Is(err, ErrDeleted) {
		t.Errorf("expected ErrDeleted, got %v", err)
	}
}

func TestChat_Tags(t *testing.T) {
	chat, _ := NewChat("Tagged", "")

	if err := chat.AddTag("infra"); err != nil {
		t.Fatalf("AddTag failed: %v", err)
	}
	versionAfterAdd := chat.Version

	// Duplicate is a no-op
	if err := chat.AddTag("infra"); err != nil {
		t.Fatalf("AddTag duplicate failed: %v", err)
	}
	if chat.Version != versionAfterAdd {
		t.Error("duplicate tag should not bump version")
	}

	if !chat.RemoveTag("infra") {
		t.Error("expected RemoveTag to report presence")
	}
	if chat.RemoveTag("infra") {
		t.Error("expected RemoveTag to report absence on second call")
	}
}

func TestChat_SoftDelete(t *testing.T) {
	chat, _ := NewChat("Ephemeral", "")
	v := chat.Version

	chat.Delete()
	if !chat.IsDeleted {
		t.Error("expected chat deleted")
	}
	if chat.DeletedAt.IsZero() {
		t.Error("expected DeletedAt set")
	}
	if chat.Version != v+1 {
		t.Errorf("soft delete should bump version: expected %d, got %d", v+1, chat.Version)
	}

	// Idempotent
	chat.Delete()
	if chat.Version != v+1 {
		t.Error("repeated delete should not bump version")
	}

	chat.Restore()
	if chat.IsDeleted {
		t.Error("expected chat restored")
	}
	if !chat.DeletedAt.IsZero() {
		t.Error("expected DeletedAt cleared")
	}
	if chat.Version != v+2 {
		t.Errorf("restore should bump version: expected %d, got %d", v+2, chat.Version)
	}
}

func TestChat_SyncMarkers_DoNotBumpVersion(t *testing.T) {
	chat, _ := NewChat("Synced", "")
	v := chat.Version

	chat.MarkSynced()
	if chat.SyncStatus != SyncSynced || chat.Version != v {
		t.Errorf("MarkSynced changed version or wrong status: v=%d status=%s", chat.Version, chat.SyncStatus)
	}

	chat.MarkConflict()
	if chat.SyncStatus != SyncConflict || chat.Version != v {
		t.Errorf("MarkConflict changed version or wrong status: v=%d status=%s", chat.Version, chat.SyncStatus)
	}
}

func TestReconstituteChat(t *testing.T) {
	original, _ := NewChat("Round trip", "wt-9")
	original.AddTag("a")
	original.Delete()

	rebuilt := ReconstituteChat(
		original.ID, original.Title, original.Tags, original.WorktreeID,
		original.IsDeleted, original.DeletedAt, original.SyncStatus,
		original.Version, original.CreatedAt, original.UpdatedAt,
	)

	if rebuilt.ID != original.ID || rebuilt.Version != original.Version ||
		rebuilt.IsDeleted != original.IsDeleted || rebuilt.SyncStatus != original.SyncStatus {
		t.Errorf("reconstituted chat differs: %+v vs %+v", rebuilt, original)
	}
}
