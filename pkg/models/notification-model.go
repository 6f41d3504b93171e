package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationKind enum
type NotificationKind string

const (
	KindAdmin     NotificationKind = "admin"
	KindPersonal  NotificationKind = "personal"
	KindUnmatched NotificationKind = "unmatched"
	KindTest      NotificationKind = "test"
)

// Notification is a dispatched in-app notification for one recipient
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	RecipientID uint `gorm:"not null;index" json:"recipient_id"`
	Recipient   User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	IntegrationID *uint            `gorm:"index" json:"integration_id,omitempty"`
	Integration   *Integration     `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`
	EventType     string           `gorm:"index" json:"event_type,omitempty"`
	Kind          NotificationKind `gorm:"default:'admin';index" json:"kind"`

	Title    string `gorm:"not null" json:"title"`
	Body     string `gorm:"type:text" json:"body,omitempty"`
	Metadata JSON   `gorm:"type:json" json:"metadata,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`
}
