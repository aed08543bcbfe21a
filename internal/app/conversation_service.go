package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/acode/internal/core/conversation"
	"github.com/example/acode/internal/core/outbox"
	"github.com/example/acode/internal/ports/primary"
	"github.com/example/acode/internal/ports/secondary"
)

// ConversationServiceImpl implements the ConversationService interface.
// Every successful local write also enqueues an outbox entry carrying the
// new state, so the sync engine can push it to the remote store later.
// The local write is the source of truth; delivery is asynchronous.
type ConversationServiceImpl struct {
	chatRepo    secondary.ChatRepository
	runRepo     secondary.RunRepository
	messageRepo secondary.MessageRepository
	bindingRepo secondary.BindingRepository
	outboxRepo  secondary.OutboxRepository
}

// NewConversationService creates a new ConversationService with injected dependencies.
func NewConversationService(
	chatRepo secondary.ChatRepository,
	runRepo secondary.RunRepository,
	messageRepo secondary.MessageRepository,
	bindingRepo secondary.BindingRepository,
	outboxRepo secondary.OutboxRepository,
) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		chatRepo:    chatRepo,
		runRepo:     runRepo,
		messageRepo: messageRepo,
		bindingRepo: bindingRepo,
		outboxRepo:  outboxRepo,
	}
}

// CreateChat creates a chat, optionally bound to a worktree.
func (s *ConversationServiceImpl) CreateChat(ctx context.Context, req primary.CreateChatRequest) (*primary.Chat, error) {
	chat, err := conversation.NewChat(req.Title, req.WorktreeID)
	if err != nil {
		return nil, err
	}
	for _, tag := range req.Tags {
		if err := chat.AddTag(tag); err != nil {
			return nil, err
		}
	}
	// Tags added at creation are part of the initial state, not edits.
	chat.Version = 1

	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	if req.WorktreeID != "" {
		record := &secondary.BindingRecord{
			WorktreeID: req.WorktreeID,
			ChatID:     chat.ID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.bindingRepo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to bind chat to worktree: %w", err)
		}
	}

	if err := s.enqueueChat(ctx, chat, outbox.OpInsert); err != nil {
		return nil, err
	}

	return chatToDTO(chat), nil
}

// GetChat retrieves a chat by ID.
func (s *ConversationServiceImpl) GetChat(ctx context.Context, chatID string) (*primary.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return chatToDTO(chat), nil
}

// RenameChat updates a chat title.
func (s *ConversationServiceImpl) RenameChat(ctx context.Context, chatID, title string) (*primary.Chat, error) {
	return s.mutateChat(ctx, chatID, func(chat *conversation.Chat) error {
		return chat.UpdateTitle(title)
	})
}

// TagChat adds a tag to a chat.
func (s *ConversationServiceImpl) TagChat(ctx context.Context, chatID, tag string) (*primary.Chat, error) {
	return s.mutateChat(ctx, chatID, func(chat *conversation.Chat) error {
		return chat.AddTag(tag)
	})
}

// DeleteChat soft-deletes a chat and removes its binding.
func (s *ConversationServiceImpl) DeleteChat(ctx context.Context, chatID string) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat.IsDeleted {
		return nil
	}

	chat.Delete()
	if err := s.chatRepo.Update(ctx, chat); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	// A deleted chat must not hold its worktree hostage.
	if err := s.bindingRepo.DeleteByChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to unbind deleted chat: %w", err)
	}

	return s.enqueueChat(ctx, chat, outbox.OpDelete)
}

// RestoreChat reverses a soft delete. The binding is not restored: the
// worktree may have been bound elsewhere in the meantime.
func (s *ConversationServiceImpl) RestoreChat(ctx context.Context, chatID string) (*primary.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsDeleted {
		return chatToDTO(chat), nil
	}

	chat.Restore()
	if err := s.chatRepo.Update(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to restore chat: %w", err)
	}
	if err := s.enqueueChat(ctx, chat, outbox.OpUpdate); err != nil {
		return nil, err
	}

	return chatToDTO(chat), nil
}

// PurgeDeletedChats physically removes chats deleted before the cutoff.
// Purging is local housekeeping; the remote learned about the deletion
// when the soft delete synced, so no outbox entry is enqueued.
func (s *ConversationServiceImpl) PurgeDeletedChats(ctx context.Context, before time.Time) (int, error) {
	purged, err := s.chatRepo.PurgeDeleted(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge deleted chats: %w", err)
	}
	return purged, nil
}

// ListChats lists chats with filtering and stable pagination.
func (s *ConversationServiceImpl) ListChats(ctx context.Context, req primary.ListChatsRequest) ([]*primary.Chat, error) {
	chats, err := s.chatRepo.List(ctx, secondary.ChatFilters{
		WorktreeID:     req.WorktreeID,
		CreatedAfter:   req.CreatedAfter,
		CreatedBefore:  req.CreatedBefore,
		IncludeDeleted: req.IncludeDeleted,
		Limit:          req.Limit,
		Offset:         req.Offset,
	})
	if err != nil {
		return nil, err
	}

	result := make([]*primary.Chat, 0, len(chats))
	for _, chat := range chats {
		result = append(result, chatToDTO(chat))
	}
	return result, nil
}

// StartRun begins a run in a chat.
func (s *ConversationServiceImpl) StartRun(ctx context.Context, chatID, modelID string) (*primary.Run, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.IsDeleted {
		return nil, conversation.ErrDeleted
	}

	seq, err := s.runRepo.NextSequenceNumber(ctx, chatID)
	if err != nil {
		return nil, err
	}

	run := conversation.NewRun(chatID, modelID, seq)
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	if err := s.enqueueRun(ctx, run, outbox.OpInsert); err != nil {
		return nil, err
	}

	return runToDTO(run), nil
}

// CompleteRun finishes a run with token usage.
func (s *ConversationServiceImpl) CompleteRun(ctx context.Context, runID string, tokensIn, tokensOut int) (*primary.Run, error) {
	return s.mutateRun(ctx, runID, func(run *conversation.Run) {
		run.Complete(tokensIn, tokensOut)
	})
}

// FailRun marks a run failed.
func (s *ConversationServiceImpl) FailRun(ctx context.Context, runID, errorMessage string) (*primary.Run, error) {
	return s.mutateRun(ctx, runID, func(run *conversation.Run) {
		run.Fail(errorMessage)
	})
}

// AppendMessage adds a message to a run.
func (s *ConversationServiceImpl) AppendMessage(ctx context.Context, req primary.AppendMessageRequest) (*primary.Message, error) {
	run, err := s.runRepo.GetByID(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	seq, err := s.messageRepo.NextSequenceNumber(ctx, req.RunID)
	if err != nil {
		return nil, err
	}

	message := conversation.NewMessage(run.ID, run.ChatID, req.Role, req.Content, seq)
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	if err := s.enqueueMessage(ctx, message, outbox.OpInsert); err != nil {
		return nil, err
	}

	return messageToDTO(message), nil
}

// ListRuns lists runs for a chat in sequence order.
func (s *ConversationServiceImpl) ListRuns(ctx context.Context, chatID string) ([]*primary.Run, error) {
	runs, err := s.runRepo.ListByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	result := make([]*primary.Run, 0, len(runs))
	for _, run := range runs {
		result = append(result, runToDTO(run))
	}
	return result, nil
}

// ListMessages lists messages for a run in sequence order.
func (s *ConversationServiceImpl) ListMessages(ctx context.Context, runID string) ([]*primary.Message, error) {
	messages, err := s.messageRepo.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := make([]*primary.Message, 0, len(messages))
	for _, message := range messages {
		result = append(result, messageToDTO(message))
	}
	return result, nil
}

func (s *ConversationServiceImpl) mutateChat(ctx context.Context, chatID string, mutate func(*conversation.Chat) error) (*primary.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	before := chat.Version
	if err := mutate(chat); err != nil {
		return nil, err
	}
	if chat.Version == before {
		// Idempotent no-op mutation: nothing to persist or deliver.
		return chatToDTO(chat), nil
	}

	if err := s.chatRepo.Update(ctx, chat); err != nil {
		return nil, fmt.Errorf("failed to update chat: %w", err)
	}
	if err := s.enqueueChat(ctx, chat, outbox.OpUpdate); err != nil {
		return nil, err
	}

	return chatToDTO(chat), nil
}

func (s *ConversationServiceImpl) mutateRun(ctx context.Context, runID string, mutate func(*conversation.Run)) (*primary.Run, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	mutate(run)
	if err := s.runRepo.Update(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}
	if err := s.enqueueRun(ctx, run, outbox.OpUpdate); err != nil {
		return nil, err
	}

	return runToDTO(run), nil
}

func (s *ConversationServiceImpl) enqueueChat(ctx context.Context, chat *conversation.Chat, operation string) error {
	return s.enqueue(ctx, "chat", chat.ID, operation, chat)
}

func (s *ConversationServiceImpl) enqueueRun(ctx context.Context, run *conversation.Run, operation string) error {
	return s.enqueue(ctx, "run", run.ID, operation, run)
}

func (s *ConversationServiceImpl) enqueueMessage(ctx context.Context, message *conversation.Message, operation string) error {
	return s.enqueue(ctx, "message", message.ID, operation, message)
}

func (s *ConversationServiceImpl) enqueue(ctx context.Context, entityType, entityID, operation string, state any) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", entityType, err)
	}

	entry, err := outbox.NewEntry(entityType, entityID, operation, string(payload))
	if err != nil {
		return fmt.Errorf("failed to build outbox entry: %w", err)
	}
	if err := s.outboxRepo.Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to enqueue outbox entry: %w", err)
	}
	return nil
}

func chatToDTO(chat *conversation.Chat) *primary.Chat {
	return &primary.Chat{
		ID:         chat.ID,
		Title:      chat.Title,
		Tags:       chat.Tags,
		WorktreeID: chat.WorktreeID,
		IsDeleted:  chat.IsDeleted,
		DeletedAt:  formatTimestamp(chat.DeletedAt),
		SyncStatus: chat.SyncStatus,
		Version:    chat.Version,
		CreatedAt:  formatTimestamp(chat.CreatedAt),
		UpdatedAt:  formatTimestamp(chat.UpdatedAt),
	}
}

func runToDTO(run *conversation.Run) *primary.Run {
	return &primary.Run{
		ID:             run.ID,
		ChatID:         run.ChatID,
		ModelID:        run.ModelID,
		Status:         run.Status,
		StartedAt:      formatTimestamp(run.StartedAt),
		CompletedAt:    formatTimestamp(run.CompletedAt),
		TokensIn:       run.TokensIn,
		TokensOut:      run.TokensOut,
		SequenceNumber: run.SequenceNumber,
		ErrorMessage:   run.ErrorMessage,
		SyncStatus:     run.SyncStatus,
		Version:        run.Version,
	}
}

func messageToDTO(message *conversation.Message) *primary.Message {
	return &primary.Message{
		ID:             message.ID,
		RunID:          message.RunID,
		ChatID:         message.ChatID,
		Role:           message.Role,
		Content:        message.Content,
		SequenceNumber: message.SequenceNumber,
		SyncStatus:     message.SyncStatus,
		Version:        message.Version,
		CreatedAt:      formatTimestamp(message.CreatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
