package secondary

import (
	"context"

	"github.com/example/acode/internal/core/outbox"
)

// SyncTarget defines the secondary port for remote batch delivery.
// The remote endpoint itself is an external collaborator; implementations
// must return errors classifiable by the retry policy (transient vs
// permanent).
type SyncTarget interface {
	// DeliverBatch pushes one batch of outbox entries to the remote store.
	// Entries carry idempotency keys so redelivery is safe.
	DeliverBatch(ctx context.Context, entries []*outbox.Entry) error
}
