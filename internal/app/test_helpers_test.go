package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/ports/secondary"
)

// Ensure mocks implement the interfaces
var (
	_ secondary.BindingRepository     = (*mockBindingRepo)(nil)
	_ secondary.ChatRepository        = (*mockChatRepo)(nil)
	_ secondary.RunRepository         = (*mockRunRepo)(nil)
	_ secondary.MessageRepository     = (*mockMessageRepo)(nil)
	_ secondary.OutboxRepository      = (*mockOutboxRepo)(nil)
	_ secondary.SyncTarget            = (*mockSyncTarget)(nil)
	_ secondary.ContextEventPublisher = (*mockPublisher)(nil)
)

// mockBindingRepo implements secondary.BindingRepository for testing.
type mockBindingRepo struct {
	mu        sync.Mutex
	byWT      map[string]*secondary.BindingRecord
	createErr error
}

func newMockBindingRepo() *mockBindingRepo {
	return &mockBindingRepo{byWT: make(map[string]*secondary.BindingRecord)}
}

func (m *mockBindingRepo) GetByWorktree(ctx context.Context, worktreeID string) (*secondary.BindingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byWT[worktreeID], nil
}

func (m *mockBindingRepo) GetByChat(ctx context.Context, chatID string) (*secondary.BindingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.byWT {
		if record.ChatID == chatID {
			return record, nil
		}
	}
	return nil, nil
}

func (m *mockBindingRepo) Create(ctx context.Context, binding *secondary.BindingRecord) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byWT[binding.WorktreeID]; exists {
		return fmt.Errorf("UNIQUE constraint failed: worktree_bindings.worktree_id")
	}
	for _, record := range m.byWT {
		if record.ChatID == binding.ChatID {
			return fmt.Errorf("UNIQUE constraint failed: worktree_bindings.chat_id")
		}
	}
	m.byWT[binding.WorktreeID] = binding
	return nil
}

func (m *mockBindingRepo) DeleteByWorktree(ctx context.Context, worktreeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byWT, worktreeID)
	return nil
}

func (m *mockBindingRepo) DeleteByChat(ctx context.Context, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for wt, record := range m.byWT {
		if record.ChatID == chatID {
			delete(m.byWT, wt)
		}
	}
	return nil
}

func (m *mockBindingRepo) ListAll(ctx context.Context) ([]*secondary.BindingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := make([]*secondary.BindingRecord, 0, len(m.byWT))
	for _, record := range m.byWT {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

// mockChatRepo implements secondary.ChatRepository for testing.
type mockChatRepo struct {
	mu    sync.Mutex
	chats map[string]*conversation.Chat
}

func newMockChatRepo() *mockChatRepo {
	return &mockChatRepo{chats: make(map[string]*conversation.Chat)}
}

func (m *mockChatRepo) clone(chat *conversation.Chat) *conversation.Chat {
	copied := *chat
	copied.Tags = append([]string(nil), chat.Tags...)
	return &copied
}

func (m *mockChatRepo) Create(ctx context.Context, chat *conversation.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[chat.ID] = m.clone(chat)
	return nil
}

func (m *mockChatRepo) GetByID(ctx context.Context, id string) (*conversation.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return nil, fmt.Errorf("chat %s: %w", id, secondary.ErrNotFound)
	}
	return m.clone(chat), nil
}

func (m *mockChatRepo) Update(ctx context.Context, chat *conversation.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.chats[chat.ID]
	if !ok || stored.Version != chat.Version-1 {
		return &secondary.ConflictError{EntityType: "chat", EntityID: chat.ID, ExpectedVersion: chat.Version - 1}
	}
	m.chats[chat.ID] = m.clone(chat)
	return nil
}

func (m *mockChatRepo) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return fmt.Errorf("chat %s: %w", id, secondary.ErrNotFound)
	}
	chat.SyncStatus = syncStatus
	return nil
}

func (m *mockChatRepo) List(ctx context.Context, filters secondary.ChatFilters) ([]*conversation.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var chats []*conversation.Chat
	for _, chat := range m.chats {
		if !filters.IncludeDeleted && chat.IsDeleted {
			continue
		}
		if filters.WorktreeID != "" && chat.WorktreeID != filters.WorktreeID {
			continue
		}
		chats = append(chats, m.clone(chat))
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i].UpdatedAt.After(chats[j].UpdatedAt) })
	return chats, nil
}

func (m *mockChatRepo) PurgeDeleted(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, chat := range m.chats {
		if chat.IsDeleted && chat.DeletedAt.Before(before) {
			delete(m.chats, id)
			purged++
		}
	}
	return purged, nil
}

// mockRunRepo implements secondary.RunRepository for testing.
type mockRunRepo struct {
	mu   sync.Mutex
	runs map[string]*conversation.Run
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[string]*conversation.Run)}
}

func (m *mockRunRepo) Create(ctx context.Context, run *conversation.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *mockRunRepo) GetByID(ctx context.Context, id string) (*conversation.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

func (m *mockRunRepo) Update(ctx context.Context, run *conversation.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.runs[run.ID]
	if !ok || stored.Version != run.Version-1 {
		return &secondary.ConflictError{EntityType: "run", EntityID: run.ID, ExpectedVersion: run.Version - 1}
	}
	copied := *run
	m.runs[run.ID] = &copied
	return nil
}

func (m *mockRunRepo) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, secondary.ErrNotFound)
	}
	run.SyncStatus = syncStatus
	return nil
}

func (m *mockRunRepo) ListByChat(ctx context.Context, chatID string) ([]*conversation.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*conversation.Run
	for _, run := range m.runs {
		if run.ChatID == chatID {
			copied := *run
			runs = append(runs, &copied)
		}
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].SequenceNumber < runs[j].SequenceNumber })
	return runs, nil
}

func (m *mockRunRepo) NextSequenceNumber(ctx context.Context, chatID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, run := range m.runs {
		if run.ChatID == chatID && run.SequenceNumber > max {
			max = run.SequenceNumber
		}
	}
	return max + 1, nil
}

// mockMessageRepo implements secondary.MessageRepository for testing.
type mockMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*conversation.Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: make(map[string]*conversation.Message)}
}

func (m *mockMessageRepo) Create(ctx context.Context, message *conversation.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *message
	m.messages[message.ID] = &copied
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, secondary.ErrNotFound)
	}
	copied := *message
	return &copied, nil
}

func (m *mockMessageRepo) Update(ctx context.Context, message *conversation.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.messages[message.ID]
	if !ok || stored.Version != message.Version-1 {
		return &secondary.ConflictError{EntityType: "message", EntityID: message.ID, ExpectedVersion: message.Version - 1}
	}
	copied := *message
	m.messages[message.ID] = &copied
	return nil
}

func (m *mockMessageRepo) UpdateSyncStatus(ctx context.Context, id, syncStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[id]
	if !ok {
		return fmt.Errorf("message %s: %w", id, secondary.ErrNotFound)
	}
	message.SyncStatus = syncStatus
	return nil
}

func (m *mockMessageRepo) ListByRun(ctx context.Context, runID string) ([]*conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var messages []*conversation.Message
	for _, message := range m.messages {
		if message.RunID == runID {
			copied := *message
			messages = append(messages, &copied)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].SequenceNumber < messages[j].SequenceNumber })
	return messages, nil
}

func (m *mockMessageRepo) NextSequenceNumber(ctx context.Context, runID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, message := range m.messages {
		if message.RunID == runID && message.SequenceNumber > max {
			max = message.SequenceNumber
		}
	}
	return max + 1, nil
}

// mockOutboxRepo implements secondary.OutboxRepository for testing.
type mockOutboxRepo struct {
	mu            sync.Mutex
	entries       map[string]*outbox.Entry
	order         []string
	getPendingErr error
}

func newMockOutboxRepo() *mockOutboxRepo {
	return &mockOutboxRepo{entries: make(map[string]*outbox.Entry)}
}

func (m *mockOutboxRepo) Add(ctx context.Context, entry *outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries[entry.ID] = &copied
	m.order = append(m.order, entry.ID)
	return nil
}

func (m *mockOutboxRepo) GetByID(ctx context.Context, id string) (*outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("outbox entry %s: %w", id, secondary.ErrNotFound)
	}
	copied := *entry
	return &copied, nil
}

func (m *mockOutboxRepo) GetPending(ctx context.Context, limit int, now time.Time) ([]*outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getPendingErr != nil {
		return nil, m.getPendingErr
	}
	var pending []*outbox.Entry
	for _, id := range m.order {
		entry := m.entries[id]
		if entry == nil || !entry.Eligible(now) {
			continue
		}
		copied := *entry
		pending = append(pending, &copied)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (m *mockOutboxRepo) Update(ctx context.Context, entry *outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return fmt.Errorf("outbox entry %s: %w", entry.ID, secondary.ErrNotFound)
	}
	copied := *entry
	m.entries[entry.ID] = &copied
	return nil
}

func (m *mockOutboxRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

func (m *mockOutboxRepo) DeleteCompleted(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, entry := range m.entries {
		if entry.Status == outbox.StatusCompleted && entry.CompletedAt.Before(before) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *mockOutboxRepo) ListFailed(ctx context.Context) ([]*outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var failed []*outbox.Entry
	for _, id := range m.order {
		entry := m.entries[id]
		if entry != nil && entry.Status == outbox.StatusFailed {
			copied := *entry
			failed = append(failed, &copied)
		}
	}
	return failed, nil
}

func (m *mockOutboxRepo) CountPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, entry := range m.entries {
		if entry.Status == outbox.StatusPending {
			count++
		}
	}
	return count, nil
}

func (m *mockOutboxRepo) OldestPendingCreatedAt(ctx context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest time.Time
	for _, entry := range m.entries {
		if entry.Status != outbox.StatusPending {
			continue
		}
		if oldest.IsZero() || entry.CreatedAt.Before(oldest) {
			oldest = entry.CreatedAt
		}
	}
	return oldest, nil
}

// statusOf reads an entry's current status directly from the store.
func (m *mockOutboxRepo) statusOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return ""
	}
	return entry.Status
}

// mockSyncTarget implements secondary.SyncTarget for testing.
type mockSyncTarget struct {
	mu          sync.Mutex
	deliveries  [][]*outbox.Entry
	failures    []error       // consumed per call; nil means success
	delay       time.Duration // simulated delivery latency
	inFlight    int
	maxInFlight int
}

func newMockSyncTarget() *mockSyncTarget {
	return &mockSyncTarget{}
}

func (m *mockSyncTarget) DeliverBatch(ctx context.Context, entries []*outbox.Entry) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	var err error
	if len(m.failures) > 0 {
		err = m.failures[0]
		m.failures = m.failures[1:]
	}
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	if err == nil {
		m.deliveries = append(m.deliveries, entries)
	}
	m.inFlight--
	m.mu.Unlock()
	return err
}

func (m *mockSyncTarget) deliveredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, batch := range m.deliveries {
		total += len(batch)
	}
	return total
}

// mockPublisher implements secondary.ContextEventPublisher for testing.
type mockPublisher struct {
	mu     sync.Mutex
	events []secondary.ContextSwitchEvent
}

func (m *mockPublisher) PublishContextSwitch(ctx context.Context, event secondary.ContextSwitchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}
