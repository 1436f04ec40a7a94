package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/mudly/realtime/internal/domain"
)

var ErrConversationNotFound = errors.New("conversation not found")

type gormConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) Create(ctx context.Context, conv *domain.Conversation, participantIDs []string) (*domain.Conversation, error) {
	if len(participantIDs) == 0 {
		return nil, errors.New("conversation requires at least one participant")
	}

	conv.Participants = make([]domain.ConversationParticipant, 0, len(participantIDs))
	for i, userID := range participantIDs {
		conv.Participants = append(conv.Participants, domain.ConversationParticipant{
			UserID:   userID,
			Position: i,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(conv).Error
	})
	if err != nil {
		log.Printf("[ConversationRepository] Database error creating conversation with %d participants: %v", len(participantIDs), err)
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	log.Printf("[ConversationRepository] Conversation created with ID: %s", conv.ID)
	return conv, nil
}

func (r *gormConversationRepository) FindByID(ctx context.Context, id string) (*domain.Conversation, error) {
	if id == "" {
		return nil, ErrConversationNotFound
	}

	var conv domain.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants", orderByPosition).
		Where("id = ?", id).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		log.Printf("[ConversationRepository] Database error finding conversation %s: %v", id, err)
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

func (r *gormConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	db := r.db.WithContext(ctx)

	var convs []domain.Conversation
	err := db.
		Preload("Participants", orderByPosition).
		Where("id IN (?)", db.Model(&domain.ConversationParticipant{}).
			Select("conversation_id").
			Where("user_id = ?", userID)).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&convs).Error
	if err != nil {
		log.Printf("[ConversationRepository] Database error listing conversations for user %s: %v", userID, err)
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	for i := range convs {
		var last domain.Message
		err := db.
			Where("conversation_id = ?", convs[i].ID).
			Order("created_at DESC").
			Order("id DESC").
			Limit(1).
			Find(&last).Error
		if err != nil {
			return nil, fmt.Errorf("load last message: %w", err)
		}
		if last.ID != "" {
			convs[i].LastMessage = &last
		}
	}
	return convs, nil
}

func (r *gormConversationRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return count > 0, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
