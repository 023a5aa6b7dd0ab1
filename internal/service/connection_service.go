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

const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

type ConnectionRequests struct {
	Incoming []model.Connection `json:"incoming"`
	Outgoing []model.Connection `json:"outgoing"`
}

type ConnectionService interface {
	// Request creates a pending connection from sender to receiver and
	// notifies the receiver.
	Request(ctx context.Context, senderID, receiverID uuid.UUID) (*model.Connection, error)
	// Respond accepts or rejects a pending request. Only the receiver may
	// respond; accepting notifies the original sender.
	Respond(ctx context.Context, connectionID, responderID uuid.UUID, decision string) (*model.Connection, error)
	// Disconnect removes the connection. Either party may disconnect; a
	// missing row is treated as success since the end state already holds.
	Disconnect(ctx context.Context, connectionID, requesterID uuid.UUID) error
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.Connection, error)
	ListRequests(ctx context.Context, userID uuid.UUID) (*ConnectionRequests, error)
}

type connectionService struct {
	repo          repository.ConnectionRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	pairs         pairLock
}

func NewConnectionService(repo repository.ConnectionRepository, userRepo repository.UserRepository, notifications NotificationService) ConnectionService {
	return &connectionService{
		repo:          repo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *connectionService) Request(ctx context.Context, senderID, receiverID uuid.UUID) (*model.Connection, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot connect with yourself", apperror.ErrInvalidRequest)
	}

	receiver, err := s.userRepo.FindByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	// Two simultaneous opposite-direction requests must not both pass the
	// existence check, so the whole check-then-insert runs under the pair's
	// lock on top of the repository's transaction.
	mu := s.pairs.get(senderID, receiverID)
	mu.Lock()
	defer mu.Unlock()

	conn, err := s.repo.CreatePending(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}

	sender, err := s.userRepo.FindByID(ctx, senderID)
	if err != nil {
		// Row is committed; the notification text falls back to a generic
		// actor rather than failing the request.
		logger.Warn("failed to load sender for notification", "sender_id", senderID, "error", err)
		sender = &model.User{Name: "Someone"}
	}

	s.notify(ctx, receiver.ID, model.NotificationConnectionRequest,
		fmt.Sprintf("%s wants to connect with you", sender.Name),
		model.Metadata{
			"connection_id": conn.ID.String(),
			"sender_id":     senderID.String(),
		})

	return conn, nil
}

func (s *connectionService) Respond(ctx context.Context, connectionID, responderID uuid.UUID, decision string) (*model.Connection, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, fmt.Errorf("%w: decision must be accept or reject", apperror.ErrInvalidRequest)
	}

	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: connection not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	if conn.ReceiverID != responderID {
		return nil, fmt.Errorf("%w: only the receiver can respond", apperror.ErrForbidden)
	}
	if conn.Status != model.ConnectionStatusPending {
		return nil, fmt.Errorf("%w: connection is not pending", apperror.ErrInvalidState)
	}

	status := model.ConnectionStatusRejected
	if decision == DecisionAccept {
		status = model.ConnectionStatusAccepted
	}
	if err := s.repo.UpdateStatus(ctx, connectionID, status); err != nil {
		return nil, err
	}
	conn.Status = status

	if decision == DecisionAccept {
		responder, err := s.userRepo.FindByID(ctx, responderID)
		if err != nil {
			logger.Warn("failed to load responder for notification", "responder_id", responderID, "error", err)
			responder = &model.User{Name: "Someone"}
		}
		s.notify(ctx, conn.SenderID, model.NotificationConnectionAccepted,
			fmt.Sprintf("%s accepted your connection request", responder.Name),
			model.Metadata{
				"connection_id": conn.ID.String(),
				"receiver_id":   responderID.String(),
			})
	}

	return conn, nil
}

func (s *connectionService) Disconnect(ctx context.Context, connectionID, requesterID uuid.UUID) error {
	conn, err := s.repo.FindByID(ctx, connectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Idempotent delete: the desired end state already holds.
			return nil
		}
		return err
	}

	if conn.SenderID != requesterID && conn.ReceiverID != requesterID {
		return fmt.Errorf("%w: not a party to this connection", apperror.ErrForbidden)
	}

	return s.repo.Delete(ctx, connectionID)
}

func (s *connectionService) ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.Connection, error) {
	return s.repo.ListAccepted(ctx, userID)
}

func (s *connectionService) ListRequests(ctx context.Context, userID uuid.UUID) (*ConnectionRequests, error) {
	incoming, err := s.repo.ListPendingReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.repo.ListPendingSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ConnectionRequests{Incoming: incoming, Outgoing: outgoing}, nil
}

// notify is fire-and-forget relative to the triggering action: the primary
// mutation has already committed, so a failed dispatch is logged, not
// propagated.
func (s *connectionService) notify(ctx context.Context, userID uuid.UUID, notifType, message string, metadata model.Metadata) {
	if _, err := s.notifications.Dispatch(ctx, userID, notifType, message, metadata); err != nil {
		logger.Error("failed to dispatch notification", "user_id", userID, "type", notifType, "error", err)
	}
}
