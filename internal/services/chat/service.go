package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/repository/conversation"
	"github.com/mudly/realtime/internal/repository/message"
)

type service struct {
	conversations conversation.ConversationRepository
	messages      message.MessageRepository
	moderator     Moderator
	config        *Config
	logger        Logger
}

func NewService(
	conversations conversation.ConversationRepository,
	messages message.MessageRepository,
	moderator Moderator,
	config *Config,
	logger Logger,
) (Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &service{
		conversations: conversations,
		messages:      messages,
		moderator:     moderator,
		config:        config,
		logger:        logger,
	}, nil
}

func (s *service) CreateConversation(ctx context.Context, creatorID string, participantIDs []string) (*domain.Conversation, error) {
	if creatorID == "" {
		return nil, NewValidationError("create_conversation", "creator id is required")
	}
	ids := domain.UniqueParticipants(creatorID, participantIDs)
	if len(ids) < 2 {
		return nil, NewValidationError("create_conversation", "at least one other participant is required")
	}

	conv, err := s.conversations.Create(ctx, &domain.Conversation{}, ids)
	if err != nil {
		return nil, NewPersistenceError("create_conversation", "failed to create conversation", err)
	}
	s.logger.Info("Conversation created", "conversation_id", conv.ID, "creator_id", creatorID, "participants", len(ids))
	return conv, nil
}

func (s *service) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, NewPersistenceError("list_conversations", "failed to list conversations", err)
	}
	return convs, nil
}

func (s *service) GetConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if errors.Is(err, conversation.ErrConversationNotFound) {
		return nil, NewForbiddenError(userID, conversationID)
	}
	if err != nil {
		return nil, NewPersistenceError("get_conversation", "failed to load conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, NewForbiddenError(userID, conversationID)
	}
	return conv, nil
}

func (s *service) SendMessage(ctx context.Context, senderID string, in SendMessageInput) (*domain.Message, error) {
	if err := s.validateMessage(in); err != nil {
		return nil, err
	}

	verdict, err := s.moderator.ReviewChat(ctx, in.Content)
	if err != nil {
		return nil, NewModerationError("send_message", err)
	}
	if !verdict.Allowed {
		s.logger.Info("Message rejected by moderation",
			"conversation_id", in.ConversationID,
			"sender_id", senderID,
			"score", verdict.Result.Score)
		return nil, NewContentRejectedError(senderID, in.ConversationID)
	}

	msg, err := s.messages.Append(ctx, &domain.Message{
		ConversationID: in.ConversationID,
		SenderID:       senderID,
		Content:        in.Content,
		Images:         in.Images,
	})
	if errors.Is(err, conversation.ErrConversationNotFound) {
		return nil, NewNotFoundError("send_message", "conversation not found", err)
	}
	if err != nil {
		s.logger.Error("Failed to persist message", "conversation_id", in.ConversationID, "sender_id", senderID, "error", err)
		return nil, NewPersistenceError("send_message", "failed to save message", err)
	}

	s.logger.Debug("Message stored", "message_id", msg.ID, "conversation_id", msg.ConversationID)
	return msg, nil
}

func (s *service) MarkSeen(ctx context.Context, userID, conversationID, messageID string) (domain.SeenReceipt, error) {
	if messageID == "" {
		return domain.SeenReceipt{}, NewValidationError("mark_seen", "messageId is required")
	}

	receipt, err := s.messages.MarkSeen(ctx, messageID, conversationID, userID)
	switch {
	case errors.Is(err, message.ErrMessageNotFound):
		return receipt, NewNotFoundError("mark_seen", "message not found", err)
	case errors.Is(err, message.ErrMessageNotInConversation):
		return receipt, NewNotFoundError("mark_seen", "message not found in conversation", err)
	case err != nil:
		return receipt, NewPersistenceError("mark_seen", "failed to mark message seen", err)
	}
	return receipt, nil
}

func (s *service) History(ctx context.Context, userID, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	ok, err := s.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, NewPersistenceError("history", "failed to check participant", err)
	}
	if !ok {
		return nil, NewForbiddenError(userID, conversationID)
	}
	if limit <= 0 {
		limit = s.config.HistoryLimit
	}

	msgs, err := s.messages.ListByConversation(ctx, conversationID, before, limit)
	if err != nil {
		return nil, NewPersistenceError("history", "failed to load messages", err)
	}
	return msgs, nil
}

func (s *service) validateMessage(in SendMessageInput) error {
	if strings.TrimSpace(in.ConversationID) == "" {
		return NewValidationError("send_message", "conversationId is required")
	}
	if strings.TrimSpace(in.Content) == "" && len(in.Images) == 0 {
		return NewValidationError("send_message", "content is required")
	}
	if utf8.RuneCountInString(in.Content) > s.config.MaxContentLength {
		return NewValidationError("send_message", "content is too long")
	}
	if len(in.Images) > s.config.MaxImages {
		return NewValidationError("send_message", "too many images")
	}
	for _, img := range in.Images {
		if strings.TrimSpace(img) == "" {
			return NewValidationError("send_message", "image reference cannot be empty")
		}
	}
	return nil
}
