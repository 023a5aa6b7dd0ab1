package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConnectionStatusPending  = "pending"
	ConnectionStatusAccepted = "accepted"
	ConnectionStatusRejected = "rejected"
)

// Connection is a directed connection request between two users. At most one
// non-rejected row may exist per user pair, in either direction; a rejected
// row is removed when a fresh request is made for the pair. The pair
// uniqueness is backed by idx_connections_active_pair, a partial unique index
// on (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id))
// created at migration time, so it holds across instances.
type Connection struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_connections_pair,priority:1" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_connections_pair,priority:2" json:"receiver_id"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Sender   *User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"receiver,omitempty"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
