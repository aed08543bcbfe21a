package worktree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetect_GitDirectory(t *testing.T) {
	root := t.TempDir()
	worktreeRoot := filepath.Join(root, "my-project")
	subDir := filepath.Join(worktreeRoot, "src", "subfolder")

	if err := os.MkdirAll(filepath.Join(worktreeRoot, ".git"), 0755); err != nil {
		t.Fatalf("failed to create .git dir: %v", err)
	}
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	wt, err := Detect(subDir)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if wt.Path != Canonicalize(worktreeRoot) {
		t.Errorf("expected root %s, got %s", Canonicalize(worktreeRoot), wt.Path)
	}
	if wt.ID != IDFromPath(worktreeRoot) {
		t.Errorf("expected ID %s, got %s", IDFromPath(worktreeRoot), wt.ID)
	}
}

func TestDetect_GitFile(t *testing.T) {
	// Linked worktrees have a .git file containing a gitdir pointer.
	root := t.TempDir()
	linked := filepath.Join(root, "linked-worktree")
	if err := os.MkdirAll(linked, 0755); err != nil {
		t.Fatalf("failed to create worktree dir: %v", err)
	}
	gitFile := filepath.Join(linked, ".git")
	if err := os.WriteFile(gitFile, []byte("gitdir: /somewhere/.git/worktrees/linked\n"), 0644); err != nil {
		t.Fatalf("failed to write .git file: %v", err)
	}

	wt, err := Detect(linked)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if wt.Path != Canonicalize(linked) {
		t.Errorf("expected root %s, got %s", Canonicalize(linked), wt.Path)
	}
}

func TestDetect_NoWorktree(t *testing.T) {
	dir := t.TempDir()

	_, err := Detect(dir)
	if !errors.Is(err, ErrNotInWorktree) {
		t.Errorf("expected ErrNotInWorktree, got %v", err)
	}
}

func TestDetect_ReturnsInnermostWorktree(t *testing.T) {
	root := t.TempDir()
	outer := filepath.Join(root, "outer")
	inner := filepath.Join(outer, "vendor", "inner")

	if err := os.MkdirAll(filepath.Join(outer, ".git"), 0755); err != nil {
		t.Fatalf("failed to create outer .git: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(inner, ".git"), 0755); err != nil {
		t.Fatalf("failed to create inner .git: %v", err)
	}

	wt, err := Detect(inner)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if wt.Path != Canonicalize(inner) {
		t.Errorf("expected innermost root %s, got %s", Canonicalize(inner), wt.Path)
	}
}

func TestIDFromPath_Stable(t *testing.T) {
	a := IDFromPath("/home/user/src/project")
	b := IDFromPath("/home/user/src/project/")
	if a != b {
		t.Errorf("IDs differ for equivalent paths: %q vs %q", a, b)
	}
}

func TestIDFromPath_Sanitized(t *testing.T) {
	id := IDFromPath("/home/user/my project (copy)")
	for i := 0; i < len(id); i++ {
		c := id[i]
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '.' || c == '_' || c == '-'
		if !ok {
			t.Errorf("ID contains unsafe byte %q: %s", c, id)
		}
	}
}
