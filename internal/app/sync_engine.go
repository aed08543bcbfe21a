package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/core/retry"
	"github.com/example/acode/internal/ctxutil"
	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// SyncEngineConfig tunes the background sync engine.
type SyncEngineConfig struct {
	Interval      time.Duration
	FetchLimit    int
	BatchMaxCount int
	BatchMaxBytes int
	MaxRetries    int
	BaseDelay     time.Duration
}

// SyncEngine implements the SyncService interface. A ticker drives sync
// cycles; a weighted semaphore of size one serializes timer-driven cycles
// with explicit SyncNow calls so at most one cycle runs at a time.
//
// PendingCount and sync lag in Status are always derived from the durable
// outbox table, so they survive restarts. TotalProcessed and TotalFailed
// are in-memory counters and reset with the process.
type SyncEngine struct {
	outboxRepo  secondary.OutboxRepository
	chatRepo    secondary.ChatRepository
	runRepo     secondary.RunRepository
	messageRepo secondary.MessageRepository
	target      secondary.SyncTarget
	config      SyncEngineConfig
	policy      *retry.Policy
	logger      *log.Logger

	// inFlight is the single-flight gate shared by the loop and SyncNow.
	inFlight *semaphore.Weighted

	mu         sync.Mutex
	running    bool
	paused     bool
	cancel     context.CancelFunc
	done       chan struct{}
	lastSyncAt time.Time

	totalProcessed atomic.Int64
	totalFailed    atomic.Int64
}

// NewSyncEngine creates a sync engine. Zero config fields fall back to
// conservative defaults.
func NewSyncEngine(
	outboxRepo secondary.OutboxRepository,
	chatRepo secondary.ChatRepository,
	runRepo secondary.RunRepository,
	messageRepo secondary.MessageRepository,
	target secondary.SyncTarget,
	config SyncEngineConfig,
	logger *log.Logger,
) *SyncEngine {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Second
	}
	if config.FetchLimit <= 0 {
		config.FetchLimit = 50
	}
	if config.BatchMaxCount <= 0 {
		config.BatchMaxCount = 50
	}
	if config.BatchMaxBytes <= 0 {
		config.BatchMaxBytes = 1_000_000
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	return &SyncEngine{
		outboxRepo:  outboxRepo,
		chatRepo:    chatRepo,
		runRepo:     runRepo,
		messageRepo: messageRepo,
		target:      target,
		config:      config,
		policy:      retry.NewPolicy(config.MaxRetries, config.BaseDelay),
		logger:      logger,
		inFlight:    semaphore.NewWeighted(1),
	}
}

// Start launches the background loop. Idempotent no-op when running.
func (e *SyncEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	// The loop outlives the caller's context; Stop owns its lifetime.
	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true

	go e.loop(loopCtx, e.done)
	return nil
}

// Stop halts the background loop and waits for it to exit.
// Idempotent no-op when stopped.
func (e *SyncEngine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	cancel := e.cancel
	done := e.done
	e.running = false
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause suppresses sync cycles while keeping the timer alive.
func (e *SyncEngine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	return nil
}

// Resume re-enables sync cycles after Pause.
func (e *SyncEngine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	return nil
}

// SyncNow triggers one sync cycle immediately, serialized with timer-driven
// cycles through the single-flight gate.
func (e *SyncEngine) SyncNow(ctx context.Context) error {
	if err := e.inFlight.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.inFlight.Release(1)

	return e.cycle(ctx)
}

// Status reports engine and backlog state.
func (e *SyncEngine) Status(ctx context.Context) (*primary.SyncStatus, error) {
	e.mu.Lock()
	running := e.running
	paused := e.paused
	lastSyncAt := e.lastSyncAt
	e.mu.Unlock()

	pending, err := e.outboxRepo.CountPending(ctx)
	if err != nil {
		return nil, err
	}

	var lagSeconds float64
	oldest, err := e.outboxRepo.OldestPendingCreatedAt(ctx)
	if err != nil {
		return nil, err
	}
	if !oldest.IsZero() {
		lagSeconds = time.Since(oldest).Seconds()
	}

	status := &primary.SyncStatus{
		Running:        running,
		Paused:         paused,
		PendingCount:   pending,
		SyncLagSeconds: lagSeconds,
		TotalProcessed: e.totalProcessed.Load(),
		TotalFailed:    e.totalFailed.Load(),
	}
	if !lastSyncAt.IsZero() {
		status.LastSyncAt = lastSyncAt.UTC().Format(time.RFC3339)
	}
	return status, nil
}

// ListFailed returns dead-letter entries for inspection.
func (e *SyncEngine) ListFailed(ctx context.Context) ([]*primary.OutboxEntry, error) {
	entries, err := e.outboxRepo.ListFailed(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*primary.OutboxEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entryToDTO(entry))
	}
	return result, nil
}

// ReplayFailed resets a failed entry to pending for redelivery. The retry
// budget starts over; the idempotency key is retained.
func (e *SyncEngine) ReplayFailed(ctx context.Context, entryID string) error {
	entry, err := e.outboxRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if err := entry.Replay(); err != nil {
		return err
	}
	return e.outboxRepo.Update(ctx, entry)
}

func (e *SyncEngine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			paused := e.paused
			e.mu.Unlock()
			if paused {
				continue
			}

			if !e.inFlight.TryAcquire(1) {
				// A cycle is already in flight; skip this tick.
				continue
			}
			e.runCycle(ctx)
			e.inFlight.Release(1)
		}
	}
}

// runCycle executes one cycle, containing panics and errors so a bad cycle
// never kills the loop.
func (e *SyncEngine) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.totalFailed.Add(1)
			e.logger.Printf("WARN sync cycle panicked: %v", r)
		}
	}()

	if err := e.cycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.totalFailed.Add(1)
		e.logger.Printf("WARN sync cycle failed: %v", err)
	}
}

// cycle drains one fetch of eligible outbox entries through the target.
// Each cycle carries its own correlation ID so remote-side logs can be
// matched to local ones.
func (e *SyncEngine) cycle(ctx context.Context) error {
	ctx = ctxutil.WithCorrelationID(ctx, uuid.NewString())

	now := time.Now().UTC()
	pending, err := e.outboxRepo.GetPending(ctx, e.config.FetchLimit, now)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		e.recordSync(now)
		return nil
	}

	batches := outbox.Batch(pending, e.config.BatchMaxCount, e.config.BatchMaxBytes)
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.deliverBatch(ctx, batch)
	}

	e.recordSync(time.Now().UTC())
	return nil
}

func (e *SyncEngine) deliverBatch(ctx context.Context, batch []*outbox.Entry) {
	for _, entry := range batch {
		entry.MarkProcessing()
		if err := e.outboxRepo.Update(ctx, entry); err != nil {
			e.logger.Printf("WARN failed to mark outbox entry %s processing: %v", entry.ID, err)
		}
	}

	err := e.policy.Execute(ctx, func(ctx context.Context) error {
		return e.target.DeliverBatch(ctx, batch)
	})

	if err == nil {
		for _, entry := range batch {
			entry.MarkCompleted()
			if uerr := e.outboxRepo.Update(ctx, entry); uerr != nil {
				e.logger.Printf("WARN failed to complete outbox entry %s: %v", entry.ID, uerr)
				continue
			}
			e.markEntitySynced(ctx, entry)
			e.totalProcessed.Add(1)
		}
		return
	}

	// The whole batch shares one delivery, so the whole batch shares its fate.
	transient := retry.IsTransient(err)
	for _, entry := range batch {
		if transient && entry.RetryCount < e.config.MaxRetries {
			entry.RequeueTransient(err.Error(), e.backoff(entry.RetryCount))
		} else {
			entry.MarkFailed(err.Error())
			e.markEntityConflict(ctx, entry)
			e.totalFailed.Add(1)
		}
		if uerr := e.outboxRepo.Update(ctx, entry); uerr != nil {
			e.logger.Printf("WARN failed to record outbox entry %s failure: %v", entry.ID, uerr)
		}
	}
}

// backoff is the cross-cycle requeue delay: BaseDelay * 2^retryCount.
func (e *SyncEngine) backoff(retryCount int) time.Duration {
	return e.config.BaseDelay << retryCount
}

func (e *SyncEngine) recordSync(at time.Time) {
	e.mu.Lock()
	e.lastSyncAt = at
	e.mu.Unlock()
}

// markEntitySynced records remote acknowledgement on the source entity.
// The entity may have been purged since; absence is not an error.
func (e *SyncEngine) markEntitySynced(ctx context.Context, entry *outbox.Entry) {
	e.updateEntityStatus(ctx, entry, conversation.SyncSynced)
}

func (e *SyncEngine) markEntityConflict(ctx context.Context, entry *outbox.Entry) {
	e.updateEntityStatus(ctx, entry, conversation.SyncConflict)
}

func (e *SyncEngine) updateEntityStatus(ctx context.Context, entry *outbox.Entry, status string) {
	var err error
	switch entry.EntityType {
	case "chat":
		err = e.chatRepo.UpdateSyncStatus(ctx, entry.EntityID, status)
	case "run":
		err = e.runRepo.UpdateSyncStatus(ctx, entry.EntityID, status)
	case "message":
		err = e.messageRepo.UpdateSyncStatus(ctx, entry.EntityID, status)
	default:
		return
	}
	if err != nil && !errors.Is(err, secondary.ErrNotFound) {
		e.logger.Printf("WARN failed to update %s %s sync status: %v", entry.EntityType, entry.EntityID, err)
	}
}

func entryToDTO(entry *outbox.Entry) *primary.OutboxEntry {
	return &primary.OutboxEntry{
		ID:             entry.ID,
		IdempotencyKey: entry.IdempotencyKey,
		EntityType:     entry.EntityType,
		EntityID:       entry.EntityID,
		Operation:      entry.Operation,
		Status:         entry.Status,
		RetryCount:     entry.RetryCount,
		LastError:      entry.LastError,
		CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
