package models

import (
	"time"

	"gorm.io/gorm"
)

// ShareMode enum
type ShareMode string

const (
	ShareNone     ShareMode = "none"
	ShareEveryone ShareMode = "everyone"
	ShareGroups   ShareMode = "groups"
	ShareUsers    ShareMode = "users"
)

// Integration represents a configured connection to an external service
// that can emit webhook events and have its widgets shared with users.
type Integration struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Key         string `gorm:"uniqueIndex;not null" json:"key"` // overseerr, sonarr, ...
	Type        string `gorm:"not null;index" json:"type"`      // catalog type name
	DisplayName string `json:"display_name,omitempty"`
	Enabled     bool   `gorm:"default:true" json:"enabled"`

	// Connection parameters are opaque to the notification engine
	ConnectionParams JSON `gorm:"type:json" json:"connection_params,omitempty"`

	// Share rule. An empty group/user list under its mode is stored
	// as-is; it is not collapsed to "none".
	ShareMode   ShareMode  `gorm:"default:'none'" json:"share_mode"`
	ShareGroups UintList   `gorm:"type:json" json:"share_groups"`
	ShareUsers  UintList   `gorm:"type:json" json:"share_users"`

	// Event allowlists. Admin and user sets are independent.
	AdminEvents StringList `gorm:"type:json" json:"admin_events"`
	UserEvents  StringList `gorm:"type:json" json:"user_events"`

	// Relationships
	Credential *WebhookCredential `gorm:"foreignKey:IntegrationID" json:"credential,omitempty"`
}

// WebhookCredential is the bearer token gating inbound webhook calls
// for one integration. At most one active credential exists per
// integration; rotation replaces it in a single transaction.
type WebhookCredential struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IntegrationID uint        `gorm:"not null;uniqueIndex" json:"integration_id"`
	Integration   Integration `gorm:"foreignKey:IntegrationID" json:"integration,omitempty"`

	// Only a digest is stored; the full token is shown once at issue time.
	TokenDigest string `gorm:"not null" json:"-"`
	TokenPrefix string `json:"token_prefix"` // first characters, for display
	Enabled     bool   `gorm:"default:true" json:"enabled"`
}
