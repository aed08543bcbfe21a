// Package conversation contains the Chat, Run and Message aggregates.
// Aggregates carry a monotonic version counter for optimistic concurrency;
// every state mutation bumps the version and resets the sync status so the
// change is picked up for remote delivery.
package conversation

// SyncStatus describes where an aggregate stands relative to the remote store.
const (
	SyncPending  = "pending"  // local change not yet delivered
	SyncSynced   = "synced"   // remote store has this version
	SyncConflict = "conflict" // remote rejected this version
)
