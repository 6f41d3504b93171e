package models

import (
	"time"
)

// LinkMethod enum
type LinkMethod string

const (
	LinkMethodSSO    LinkMethod = "sso"
	LinkMethodManual LinkMethod = "manual"
)

// IdentityLink associates an internal user with an external username
// on a named service, used to personalize inbound webhook events.
// Manual links are not unique across users; the resolver treats a
// duplicate match as unmatched rather than guessing. Rows are deleted
// outright on unlink so (user_id, service) is immediately reusable
// under the unique index.
type IdentityLink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"not null;index;uniqueIndex:idx_user_service" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Service          string     `gorm:"not null;index;uniqueIndex:idx_user_service" json:"service"`
	ExternalUsername string     `gorm:"not null;index" json:"external_username"`
	ExternalEmail    string     `json:"external_email,omitempty"`
	Method           LinkMethod `gorm:"default:'manual'" json:"method"`
	LinkedAt         time.Time  `json:"linked_at"`
}
