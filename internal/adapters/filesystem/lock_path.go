// Package filesystem contains filesystem-based adapter implementations:
// the lock path resolver and the atomic file lock.
package filesystem

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LockPathResolver maps resource IDs to lock file paths confined to the
// lock directory. Resolution is the only way lock paths are produced, so
// traversal attempts in resource IDs never reach the filesystem.
type LockPathResolver struct {
	locksDir string
}

// NewLockPathResolver creates a resolver rooted at locksDir.
func NewLockPathResolver(locksDir string) *LockPathResolver {
	return &LockPathResolver{locksDir: filepath.Clean(locksDir)}
}

// Resolve returns the lock file path for a resource ID.
func (r *LockPathResolver) Resolve(resourceID string) (string, error) {
	if strings.TrimSpace(resourceID) == "" {
		return "", fmt.Errorf("resource ID cannot be empty")
	}

	name := sanitizeLockName(resourceID)
	path := filepath.Clean(filepath.Join(r.locksDir, name+".lock"))

	// Sanitization already removes separators; verify anyway so a resolver
	// bug can never escape the lock directory.
	if filepath.Dir(path) != r.locksDir {
		return "", fmt.Errorf("lock path %s escapes lock directory %s", path, r.locksDir)
	}

	return path, nil
}

// sanitizeLockName replaces every byte outside [A-Za-z0-9._-] with '_'
// and strips leading dots so names cannot be hidden or relative.
func sanitizeLockName(s string) string {
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
	return strings.TrimLeft(b.String(), ".")
}
