// Package remote contains adapters for the remote sync endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/core/retry"
	"github.com/example/acode/internal/ctxutil"
)

// batchEntry is the wire shape of one outbox entry.
type batchEntry struct {
	IdempotencyKey string `json:"idempotency_key"`
	EntityType     string `json:"entity_type"`
	EntityID       string `json:"entity_id"`
	Operation      string `json:"operation"`
	Payload        string `json:"payload"`
	CreatedAt      string `json:"created_at"`
}

// batchRequest is the wire shape of one delivery.
type batchRequest struct {
	Entries []batchEntry `json:"entries"`
}

// HTTPTarget delivers outbox batches to a remote endpoint over HTTP.
// Connection and 5xx failures are wrapped as transient so the retry policy
// requeues them; 4xx responses are permanent.
type HTTPTarget struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTarget creates a sync target for the given endpoint URL.
func NewHTTPTarget(endpoint string) *HTTPTarget {
	return &HTTPTarget{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// DeliverBatch posts one batch of entries as JSON.
func (t *HTTPTarget) DeliverBatch(ctx context.Context, entries []*outbox.Entry) error {
	request := batchRequest{Entries: make([]batchEntry, 0, len(entries))}
	for _, e := range entries {
		request.Entries = append(request.Entries, batchEntry{
			IdempotencyKey: e.IdempotencyKey,
			EntityType:     e.EntityType,
			EntityID:       e.EntityID,
			Operation:      e.Operation,
			Payload:        e.Payload,
			CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/v1/sync/batch", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cid := ctxutil.CorrelationFromContext(ctx); cid != "" {
		req.Header.Set("X-Correlation-ID", cid)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return retry.Transient(fmt.Errorf("failed to deliver batch: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read a bounded slice of the body for the error message.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("remote rejected batch: %s: %s", resp.Status, bytes.TrimSpace(snippet))

	// 5xx and 429 are the server's problem or throttling: retry later.
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return retry.Transient(err)
	}
	return err
}
