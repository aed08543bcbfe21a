// Package terminal resolves an identity for the terminal running this
// process. The identity is recorded in lock files so a human inspecting a
// busy lock can find the holder's terminal.
package terminal

import (
	"fmt"
	"os"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Identifier resolves terminal identity, preferring tmux metadata and
// falling back to environment hints.
type Identifier struct{}

// NewIdentifier creates a terminal identifier.
func NewIdentifier() *Identifier {
	return &Identifier{}
}

// TerminalID returns a best-effort identity for the current terminal.
// Inside tmux it is "tmux:<session>:<pane>"; otherwise the terminal
// emulator's session ID or the parent process as a last resort.
func (i *Identifier) TerminalID() string {
	if pane := os.Getenv("TMUX_PANE"); pane != "" {
		if name := attachedSessionName(); name != "" {
			return fmt.Sprintf("tmux:%s:%s", name, pane)
		}
		return "tmux:" + pane
	}

	if id := os.Getenv("TERM_SESSION_ID"); id != "" {
		return id
	}
	if tty := os.Getenv("SSH_TTY"); tty != "" {
		return tty
	}

	return fmt.Sprintf("ppid-%d", os.Getppid())
}

// attachedSessionName asks tmux for the attached session. Errors are
// swallowed: identity is informational and must never block locking.
func attachedSessionName() string {
	tmux, err := gotmux.DefaultTmux()
	if err != nil {
		return ""
	}
	sessions, err := tmux.ListSessions()
	if err != nil {
		return ""
	}
	for _, s := range sessions {
		if s.Attached > 0 {
			return s.Name
		}
	}
	return ""
}
