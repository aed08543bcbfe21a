// Package worktree provides Git worktree identity and detection.
// Pure path logic with no persistence dependencies.
package worktree

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotInWorktree is returned when no enclosing Git worktree exists.
var ErrNotInWorktree = errors.New("not inside a git worktree")

// Worktree identifies a Git working directory.
type Worktree struct {
	// Path is the canonical root of the worktree (the directory containing .git).
	Path string
	// ID is the stable identity derived from Path.
	ID string
}

// IDFromPath derives a stable worktree identity from a canonical path.
// The identity survives process restarts: same path, same ID.
func IDFromPath(path string) string {
	canonical := Canonicalize(path)

	// Flatten the path into a filesystem-safe token. Collisions between
	// paths differing only in separator placement are acceptable for lock
	// naming; the full path is still recorded alongside the ID.
	id := strings.TrimPrefix(canonical, string(filepath.Separator))
	id = strings.ReplaceAll(id, string(filepath.Separator), "-")
	id = sanitize(id)
	if id == "" {
		id = "root"
	}
	return id
}

// Canonicalize normalizes a path: absolute, cleaned, symlinks resolved
// when the path exists. A nonexistent path is still canonicalized
// textually so identity derivation never fails.
func Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs)
}

// Detect walks parent directories from startPath looking for a .git entry.
// A .git directory marks a primary worktree; a .git file marks a linked
// worktree (it contains a gitdir pointer). Returns ErrNotInWorktree when
// the filesystem root is reached without a match.
func Detect(startPath string) (*Worktree, error) {
	dir := Canonicalize(startPath)

	for {
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			return &Worktree{
				Path: dir,
				ID:   IDFromPath(dir),
			}, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotInWorktree
		}
		dir = parent
	}
}

// sanitize replaces every byte outside [A-Za-z0-9._-] with '_'.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
