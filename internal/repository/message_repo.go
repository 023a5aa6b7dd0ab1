package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]model.Message, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Preload("Sender", userSummary).
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) MarkConversationRead(ctx context.Context, recipientID, senderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true).Error
}
