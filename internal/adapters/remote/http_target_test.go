package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/core/retry"
	"github.com/example/acode/internal/ctxutil"
)

func makeEntries(t *testing.T, n int) []*outbox.Entry {
	t.Helper()
	entries := make([]*outbox.Entry, 0, n)
	for i := 0; i < n; i++ {
		entry, err := outbox.NewEntry("chat", "chat-1", outbox.OpUpdate, `{"title":"x"}`)
		if err != nil {
			t.Fatalf("NewEntry failed: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestHTTPTarget_DeliverBatch(t *testing.T) {
	var received batchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/sync/batch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode batch: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	target := NewHTTPTarget(server.URL)
	entries := makeEntries(t, 3)

	if err := target.DeliverBatch(context.Background(), entries); err != nil {
		t.Fatalf("DeliverBatch failed: %v", err)
	}

	if len(received.Entries) != 3 {
		t.Fatalf("expected 3 wire entries, got %d", len(received.Entries))
	}
	if received.Entries[0].IdempotencyKey != entries[0].IdempotencyKey {
		t.Error("idempotency key missing from wire entry")
	}
	if received.Entries[0].Operation != outbox.OpUpdate {
		t.Errorf("unexpected operation %s", received.Entries[0].Operation)
	}
}

func TestHTTPTarget_ForwardsCorrelationID(t *testing.T) {
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Correlation-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	target := NewHTTPTarget(server.URL)
	ctx := ctxutil.WithCorrelationID(context.Background(), "cycle-42")

	if err := target.DeliverBatch(ctx, makeEntries(t, 1)); err != nil {
		t.Fatalf("DeliverBatch failed: %v", err)
	}
	if header != "cycle-42" {
		t.Errorf("correlation header not forwarded, got %q", header)
	}
}

func TestHTTPTarget_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "shard unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	target := NewHTTPTarget(server.URL)
	err := target.DeliverBatch(context.Background(), makeEntries(t, 1))
	if err == nil {
		t.Fatal("expected error on 503")
	}
	if !retry.IsTransient(err) {
		t.Errorf("503 should classify as transient: %v", err)
	}
}

func TestHTTPTarget_ClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown entity type", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	target := NewHTTPTarget(server.URL)
	err := target.DeliverBatch(context.Background(), makeEntries(t, 1))
	if err == nil {
		t.Fatal("expected error on 422")
	}
	if retry.IsTransient(err) {
		t.Errorf("422 should classify as permanent: %v", err)
	}
}

func TestHTTPTarget_ConnectionFailureIsTransient(t *testing.T) {
	// Grab an address nothing is listening on.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	target := NewHTTPTarget(endpoint)
	err := target.DeliverBatch(context.Background(), makeEntries(t, 1))
	if err == nil {
		t.Fatal("expected error on refused connection")
	}
	if !retry.IsTransient(err) {
		t.Errorf("connection refused should classify as transient: %v", err)
	}
}
