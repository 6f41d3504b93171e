package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a dashboard account
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"index" json:"email,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	PasswordHash string `json:"-"` // bcrypt; empty for SSO-provisioned accounts
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"`

	// SSO provisioning
	SSOProvider string `gorm:"index" json:"sso_provider,omitempty"`
	SSOSubject  string `gorm:"index" json:"sso_subject,omitempty"`

	// Relationships
	Memberships   []GroupMembership     `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	IdentityLinks []IdentityLink        `gorm:"foreignKey:UserID" json:"identity_links,omitempty"`
	Settings      *NotificationSettings `gorm:"foreignKey:UserID" json:"settings,omitempty"`
}

// Group represents a directory group used by share rules
type Group struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`

	Memberships []GroupMembership `gorm:"foreignKey:GroupID" json:"memberships,omitempty"`
}

// GroupMembership joins users to groups
type GroupMembership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID  uint  `gorm:"not null;index;uniqueIndex:idx_user_group" json:"user_id"`
	User    User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	GroupID uint  `gorm:"not null;index;uniqueIndex:idx_user_group" json:"group_id"`
	Group   Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}
