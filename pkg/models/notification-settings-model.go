package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationSettings stores a user's global notification preferences
type NotificationSettings struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Enabled bool `gorm:"default:true" json:"enabled"`
	Sound   bool `gorm:"default:false" json:"sound"`

	// Meaningful for administrators only: opt in to events whose actor
	// could not be resolved to an account.
	ReceiveUnmatched bool `gorm:"default:false" json:"receive_unmatched"`
}

// IntegrationSubscription stores a user's opt-in for one integration:
// an enabled flag and the chosen subset of that integration's
// user-visible events. Selections that fall outside the current
// allowlist are kept as stored and simply stop matching.
type IntegrationSubscription struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID        uint        `gorm:"not null;index;uniqueIndex:idx_user_integration" json:"user_id"`
	User          User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	IntegrationID uint        `gorm:"not null;index;uniqueIndex:idx_user_integration" json:"integration_id"`
	Integration   Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`

	Enabled bool       `gorm:"default:false" json:"enabled"`
	Events  StringList `gorm:"type:json" json:"events"`
}
