package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/acode/internal/ports/primary"
)

// SyncAdapter translates CLI operations to SyncService calls.
type SyncAdapter struct {
	service primary.SyncService
	out     io.Writer
}

// NewSyncAdapter creates a new SyncAdapter with the given service.
func NewSyncAdapter(service primary.SyncService, out io.Writer) *SyncAdapter {
	return &SyncAdapter{
		service: service,
		out:     out,
	}
}

// Now triggers one sync cycle and prints the resulting backlog.
func (a *SyncAdapter) Now(ctx context.Context) error {
	if err := a.service.SyncNow(ctx); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}

	status, err := a.service.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync status: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Sync cycle complete, %d entries pending\n", status.PendingCount)
	return nil
}

// Status prints engine and backlog state.
func (a *SyncAdapter) Status(ctx context.Context) (*primary.SyncStatus, error) {
	status, err := a.service.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync status: %w", err)
	}

	state := "stopped"
	if status.Running {
		state = "running"
		if status.Paused {
			state = "paused"
		}
	}

	fmt.Fprintf(a.out, "Engine:    %s\n", state)
	fmt.Fprintf(a.out, "Pending:   %d\n", status.PendingCount)
	if status.PendingCount > 0 {
		lag := time.Duration(status.SyncLagSeconds * float64(time.Second)).Round(time.Second)
		fmt.Fprintf(a.out, "Lag:       %s\n", lag)
	}
	if status.LastSyncAt != "" {
		fmt.Fprintf(a.out, "Last sync: %s\n", status.LastSyncAt)
	}
	fmt.Fprintf(a.out, "Processed: %d this session\n", status.TotalProcessed)
	if status.TotalFailed > 0 {
		fmt.Fprintf(a.out, "Failed:    %s\n", color.New(color.FgRed).Sprintf("%d this session", status.TotalFailed))
	}

	return status, nil
}

// Failed lists dead-letter entries.
func (a *SyncAdapter) Failed(ctx context.Context) ([]*primary.OutboxEntry, error) {
	entries, err := a.service.ListFailed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letters: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No failed entries.")
		return entries, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tENTITY\tOP\tRETRIES\tERROR")
	fmt.Fprintln(w, "--\t------\t--\t-------\t-----")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s %s\t%s\t%d\t%s\n",
			entry.ID, entry.EntityType, entry.EntityID, entry.Operation, entry.RetryCount, entry.LastError)
	}
	w.Flush()

	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Replay an entry:")
	fmt.Fprintln(a.out, "  acode sync replay <entry-id>")
	return entries, nil
}

// Replay resets a failed entry to pending.
func (a *SyncAdapter) Replay(ctx context.Context, entryID string) error {
	if err := a.service.ReplayFailed(ctx, entryID); err != nil {
		return fmt.Errorf("failed to replay entry: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Entry %s requeued for delivery\n", entryID)
	return nil
}
