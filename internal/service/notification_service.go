package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/realtime"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/pkg/logger"
)

// EventPublisher pushes an event to the cross-instance broker. Optional; nil
// means single-process deployment.
type EventPublisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event realtime.Event)
}

type NotificationService interface {
	// Dispatch persists the notification, then pushes it to the owner's live
	// sessions. The order is fixed: no push ever happens without a durable
	// record, so a missed push is always recoverable via List.
	Dispatch(ctx context.Context, userID uuid.UUID, notifType, message string, metadata model.Metadata) (*model.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	ClearAll(ctx context.Context, userID uuid.UUID) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	router    realtime.Router
	publisher EventPublisher
}

func NewNotificationService(repo repository.NotificationRepository, router realtime.Router, publisher EventPublisher) NotificationService {
	return &notificationService{
		repo:      repo,
		router:    router,
		publisher: publisher,
	}
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *notificationService) Dispatch(ctx context.Context, userID uuid.UUID, notifType, message string, metadata model.Metadata) (*model.Notification, error) {
	notification := &model.Notification{
		UserID:   userID,
		Type:     notifType,
		Message:  message,
		Metadata: metadata,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		// No durable record, so no push either.
		return nil, fmt.Errorf("append notification: %w", err)
	}

	event := realtime.Event{
		Op: realtime.OpNotificationPush,
		Data: map[string]any{
			"id":         notification.ID,
			"type":       notification.Type,
			"message":    notification.Message,
			"metadata":   notification.Metadata,
			"created_at": notification.CreatedAt,
		},
	}

	// Best-effort from here on: the record is durable, the catch-up poll
	// heals anything the live path drops.
	s.router.Deliver(userID, event)
	if s.publisher != nil {
		s.publisher.Publish(ctx, userID, event)
	}

	logger.Debug("notification dispatched", "user_id", userID, "type", notifType, "id", notification.ID)
	return notification, nil
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListRecent(ctx, userID, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) ClearAll(ctx context.Context, userID uuid.UUID) error {
	return s.repo.DeleteAll(ctx, userID)
}
