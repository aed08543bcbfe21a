package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/example/acode/internal/ports/secondary"
)

// ContextLogPublisher appends context-switch events to a JSON-lines log
// file. Audit proper is a remote concern; this log is the local record a
// human or a later shipper can read.
type ContextLogPublisher struct {
	path string
	mu   sync.Mutex
}

// NewContextLogPublisher creates a publisher writing to the given file.
func NewContextLogPublisher(path string) *ContextLogPublisher {
	return &ContextLogPublisher{path: path}
}

type contextLogLine struct {
	FromChatID string `json:"from_chat_id,omitempty"`
	ToChatID   string `json:"to_chat_id,omitempty"`
	SwitchedAt string `json:"switched_at"`
}

// PublishContextSwitch appends one event line.
func (p *ContextLogPublisher) PublishContextSwitch(ctx context.Context, event secondary.ContextSwitchEvent) error {
	line, err := json.Marshal(contextLogLine{
		FromChatID: event.FromChatID,
		ToChatID:   event.ToChatID,
		SwitchedAt: event.SwitchedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal context event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open context log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write context event: %w", err)
	}
	return nil
}
