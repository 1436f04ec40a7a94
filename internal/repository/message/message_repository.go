package message

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mudly/realtime/internal/domain"
	"github.com/mudly/realtime/internal/repository/conversation"
)

var (
	ErrMessageNotFound          = errors.New("message not found")
	ErrMessageNotInConversation = errors.New("message not found in conversation")
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Conversation{}).Where("id = ?", msg.ConversationID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return conversation.ErrConversationNotFound
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", msg.CreatedAt).Error
	})
	if errors.Is(err, conversation.ErrConversationNotFound) {
		return nil, err
	}
	if err != nil {
		log.Printf("[MessageRepository] Database error appending message to conversation %s: %v", msg.ConversationID, err)
		return nil, fmt.Errorf("append message: %w", err)
	}

	msg.SeenBy = []string{}
	return msg, nil
}

func (r *gormMessageRepository) MarkSeen(ctx context.Context, messageID, conversationID, userID string) (domain.SeenReceipt, error) {
	receipt := domain.SeenReceipt{MessageID: messageID, UserID: userID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg domain.Message
		err := tx.Select("id", "conversation_id").Where("id = ?", messageID).First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		if conversationID != "" && conversationID != msg.ConversationID {
			return ErrMessageNotInConversation
		}
		receipt.ConversationID = msg.ConversationID

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&domain.MessageSeen{MessageID: messageID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		receipt.Added = res.RowsAffected > 0
		return nil
	})
	if errors.Is(err, ErrMessageNotFound) || errors.Is(err, ErrMessageNotInConversation) {
		return receipt, err
	}
	if err != nil {
		log.Printf("[MessageRepository] Database error marking message %s seen: %v", messageID, err)
		return receipt, fmt.Errorf("mark seen: %w", err)
	}
	return receipt, nil
}

func (r *gormMessageRepository) SeenBy(ctx context.Context, messageID string) ([]string, error) {
	users := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&domain.MessageSeen{}).
		Where("message_id = ?", messageID).
		Order("id ASC").
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, fmt.Errorf("load seen-by: %w", err)
	}
	return users, nil
}

func (r *gormMessageRepository) ListByConversation(ctx context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	db := r.db.WithContext(ctx)
	query := db.Where("conversation_id = ?", conversationID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var msgs []domain.Message
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&msgs).Error; err != nil {
		log.Printf("[MessageRepository] Database error listing messages for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// newest-first page, returned oldest-first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if len(msgs) == 0 {
		return msgs, nil
	}

	ids := make([]string, len(msgs))
	for i := range msgs {
		ids[i] = msgs[i].ID
	}
	var rows []domain.MessageSeen
	if err := db.Where("message_id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load seen-by: %w", err)
	}
	seen := make(map[string][]string, len(msgs))
	for _, row := range rows {
		seen[row.MessageID] = append(seen[row.MessageID], row.UserID)
	}
	for i := range msgs {
		msgs[i].SeenBy = seen[msgs[i].ID]
		if msgs[i].SeenBy == nil {
			msgs[i].SeenBy = []string{}
		}
	}
	return msgs, nil
}
