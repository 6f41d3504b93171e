package models

import (
	"gorm.io/gorm"
)

// Database migration function
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Group{},
		&GroupMembership{},
		&Integration{},
		&WebhookCredential{},
		&NotificationSettings{},
		&IntegrationSubscription{},
		&IdentityLink{},
		&Notification{},
	)
}

func CreateIndexes(db *gorm.DB) error {
	// Composite indexes for common queries
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_identity_links_service_username ON identity_links(service, external_username)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_recipient_read ON notifications(recipient_id, read_at)").Error; err != nil {
		return err
	}

	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_notifications_created_at_desc ON notifications(created_at DESC)").Error; err != nil {
		return err
	}

	return nil
}
