package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/pkg/apperror"
	"gorm.io/gorm"
)

type ConnectionRepository interface {
	// CreatePending checks both directions of the pair and inserts a fresh
	// pending row in a single transaction. A rejected row for the pair is
	// removed first; any non-rejected row fails with ErrAlreadyExists.
	CreatePending(ctx context.Context, senderID, receiverID uuid.UUID) (*model.Connection, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Connection, error)
	// UpdateStatus moves a pending row to status. A row that is no longer
	// pending fails with ErrInvalidState.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.Connection, error)
	ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]model.Connection, error)
	ListPendingSent(ctx context.Context, userID uuid.UUID) ([]model.Connection, error)
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) CreatePending(ctx context.Context, senderID, receiverID uuid.UUID) (*model.Connection, error) {
	conn := &model.Connection{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.ConnectionStatusPending,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// One query covering both directions of the pair.
		var existing []model.Connection
		if err := tx.
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				senderID, receiverID, receiverID, senderID).
			Find(&existing).Error; err != nil {
			return err
		}

		for _, row := range existing {
			if row.Status != model.ConnectionStatusRejected {
				return fmt.Errorf("%w: connection request already exists", apperror.ErrAlreadyExists)
			}
		}

		// Rejected rows are not kept for history; drop them so the pair
		// resets to a clean slate before the new pending row.
		if len(existing) > 0 {
			if err := tx.
				Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)) AND status = ?",
					senderID, receiverID, receiverID, senderID, model.ConnectionStatusRejected).
				Delete(&model.Connection{}).Error; err != nil {
				return err
			}
		}

		return tx.Create(conn).Error
	})
	if err != nil {
		// The partial unique index on the pair catches inserts that raced
		// past the check, including from other instances.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: connection request already exists", apperror.ErrAlreadyExists)
		}
		return nil, err
	}
	return conn, nil
}

func (r *connectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Connection, error) {
	var conn model.Connection
	if err := r.db.WithContext(ctx).First(&conn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	// Only a pending row may move; a racing responder that lost loses here
	// instead of silently overwriting the first decision.
	res := r.db.WithContext(ctx).
		Model(&model.Connection{}).
		Where("id = ? AND status = ?", id, model.ConnectionStatusPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: connection is not pending", apperror.ErrInvalidState)
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Connection{}, "id = ?", id).Error
}

func (r *connectionRepository) ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.Connection, error) {
	var conns []model.Connection
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userID, userID, model.ConnectionStatusAccepted).
		Order("updated_at desc").
		Preload("Sender", userSummary).
		Preload("Receiver", userSummary).
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) ListPendingReceived(ctx context.Context, userID uuid.UUID) ([]model.Connection, error) {
	var conns []model.Connection
	err := r.db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", userID, model.ConnectionStatusPending).
		Order("created_at desc").
		Preload("Sender", userSummary).
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) ListPendingSent(ctx context.Context, userID uuid.UUID) ([]model.Connection, error) {
	var conns []model.Connection
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", userID, model.ConnectionStatusPending).
		Order("created_at desc").
		Preload("Receiver", userSummary).
		Find(&conns).Error
	return conns, err
}

func userSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "avatar_url", "organization")
}
