package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/pkg/apperror"
	"github.com/romes311/tourismiq/pkg/logger"
	"gorm.io/gorm"
)

type MessageService interface {
	Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*model.Message, error)
	ListConversation(ctx context.Context, userID, otherID uuid.UUID, limit int) ([]model.Message, error)
}

type messageService struct {
	repo          repository.MessageRepository
	userRepo      repository.UserRepository
	notifications NotificationService
}

func NewMessageService(repo repository.MessageRepository, userRepo repository.UserRepository, notifications NotificationService) MessageService {
	return &messageService{
		repo:          repo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

const conversationLimit = 50

func (s *messageService) Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*model.Message, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot message yourself", apperror.ErrInvalidRequest)
	}
	if body == "" {
		return nil, fmt.Errorf("%w: message body is empty", apperror.ErrInvalidRequest)
	}

	if _, err := s.userRepo.FindByID(ctx, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: recipient not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	message := &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	sender, err := s.userRepo.FindByID(ctx, senderID)
	if err != nil {
		logger.Warn("failed to load sender for notification", "sender_id", senderID, "error", err)
		sender = &model.User{Name: "Someone"}
	}

	// Message row is committed; notification failure must not fail the send.
	if _, err := s.notifications.Dispatch(ctx, recipientID, model.NotificationNewMessage,
		fmt.Sprintf("New message from %s", sender.Name),
		model.Metadata{
			"message_id": message.ID.String(),
			"sender_id":  senderID.String(),
		}); err != nil {
		logger.Error("failed to dispatch message notification", "recipient_id", recipientID, "error", err)
	}

	return message, nil
}

func (s *messageService) ListConversation(ctx context.Context, userID, otherID uuid.UUID, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > conversationLimit {
		limit = conversationLimit
	}

	messages, err := s.repo.ListConversation(ctx, userID, otherID, limit)
	if err != nil {
		return nil, err
	}

	// Viewing the conversation marks the other party's messages read.
	if err := s.repo.MarkConversationRead(ctx, userID, otherID); err != nil {
		logger.Warn("failed to mark conversation read", "user_id", userID, "error", err)
	}

	return messages, nil
}
