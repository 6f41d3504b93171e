package db

import (
	"context"
	"errors"
	"time"

	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"gorm.io/gorm"
)

// Repository provides database operations for specific models. It is
// the storage backend for every engine component; missing rows are
// translated to engine.ErrNotFound so the engine never sees gorm.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *DB {
	return r.db
}

// Compile-time checks that the repository satisfies the engine stores.
var (
	_ engine.ShareStore        = (*Repository)(nil)
	_ engine.AllowlistStore    = (*Repository)(nil)
	_ engine.SubscriptionStore = (*Repository)(nil)
	_ engine.IdentityStore     = (*Repository)(nil)
	_ engine.CredentialStore   = (*Repository)(nil)
	_ engine.RouterStore       = (*Repository)(nil)
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.ErrNotFound
	}
	return err
}

// User repository methods

func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Memberships.Group").First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) GetUserBySSOSubject(ctx context.Context, provider, subject string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("sso_provider = ? AND sso_subject = ?", provider, subject).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Preload("Memberships.Group").Order("username").Find(&users).Error
	return users, err
}

// DeleteUser removes a user and all dependent rows.
func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.IdentityLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.IntegrationSubscription{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.NotificationSettings{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

// PrincipalFor builds the engine principal for a user.
func (r *Repository) PrincipalFor(ctx context.Context, userID uint) (engine.Principal, error) {
	user, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return engine.Principal{}, err
	}

	groups := make([]uint, 0, len(user.Memberships))
	for _, m := range user.Memberships {
		groups = append(groups, m.GroupID)
	}

	return engine.Principal{
		UserID: user.ID,
		Groups: groups,
		Admin:  user.IsAdmin,
	}, nil
}

// Group repository methods

func (r *Repository) CreateGroup(ctx context.Context, group *models.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *Repository) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error
	if err != nil {
		return nil, translate(err)
	}
	return &group, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("name").Find(&groups).Error
	return groups, err
}

func (r *Repository) AddGroupMember(ctx context.Context, groupID, userID uint) error {
	var existing models.GroupMembership
	err := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(&models.GroupMembership{GroupID: groupID, UserID: userID}).Error
}

func (r *Repository) RemoveGroupMember(ctx context.Context, groupID, userID uint) error {
	result := r.db.WithContext(ctx).Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMembership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// Integration repository methods

func (r *Repository) CreateIntegration(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Create(integration).Error
}

func (r *Repository) GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error) {
	var integration models.Integration
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&integration).Error
	if err != nil {
		return nil, translate(err)
	}
	return &integration, nil
}

func (r *Repository) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	var integrations []models.Integration
	err := r.db.WithContext(ctx).Order("key").Find(&integrations).Error
	return integrations, err
}

func (r *Repository) UpdateIntegration(ctx context.Context, integration *models.Integration) error {
	return r.db.WithContext(ctx).Save(integration).Error
}

// DeleteIntegration removes an integration and cascades to its
// credential, subscriptions, and notifications referencing it.
func (r *Repository) DeleteIntegration(ctx context.Context, key string) error {
	integration, err := r.GetIntegrationByKey(ctx, key)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", integration.ID).Delete(&models.WebhookCredential{}).Error; err != nil {
			return err
		}
		if err := tx.Where("integration_id = ?", integration.ID).Delete(&models.IntegrationSubscription{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notification{}).Where("integration_id = ?", integration.ID).Update("integration_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Integration{}, integration.ID).Error
	})
}

// UpdateShareRule replaces the share rule fields in one update.
func (r *Repository) UpdateShareRule(ctx context.Context, key string, mode models.ShareMode, groups, users []uint) error {
	result := r.db.WithContext(ctx).Model(&models.Integration{}).Where("key = ?", key).Updates(map[string]interface{}{
		"share_mode":   mode,
		"share_groups": models.UintList(groups),
		"share_users":  models.UintList(users),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateAdminEvents(ctx context.Context, key string, events []string) error {
	return r.updateEventColumn(ctx, key, "admin_events", events)
}

func (r *Repository) UpdateUserEvents(ctx context.Context, key string, events []string) error {
	return r.updateEventColumn(ctx, key, "user_events", events)
}

func (r *Repository) updateEventColumn(ctx context.Context, key, column string, events []string) error {
	result := r.db.WithContext(ctx).Model(&models.Integration{}).Where("key = ?", key).Update(column, models.StringList(events))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// Webhook credential repository methods

func (r *Repository) GetCredential(ctx context.Context, integrationID uint) (*models.WebhookCredential, error) {
	var cred models.WebhookCredential
	err := r.db.WithContext(ctx).Where("integration_id = ?", integrationID).First(&cred).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cred, nil
}

// ReplaceCredential deletes any prior credential and inserts cred in
// one transaction, so the old token stops validating the instant the
// new one is persisted.
func (r *Repository) ReplaceCredential(ctx context.Context, cred *models.WebhookCredential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", cred.IntegrationID).Delete(&models.WebhookCredential{}).Error; err != nil {
			return err
		}
		return tx.Create(cred).Error
	})
}

func (r *Repository) DisableCredential(ctx context.Context, integrationID uint) error {
	return r.db.WithContext(ctx).Model(&models.WebhookCredential{}).Where("integration_id = ?", integrationID).Update("enabled", false).Error
}

// Notification settings repository methods

// GetSettings returns the user's settings, defaulting to enabled when
// no row has been saved yet.
func (r *Repository) GetSettings(ctx context.Context, userID uint) (*models.NotificationSettings, error) {
	var settings models.NotificationSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &models.NotificationSettings{UserID: userID, Enabled: true}, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings *models.NotificationSettings) error {
	var existing models.NotificationSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", settings.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(settings).Error
	}
	if err != nil {
		return err
	}
	settings.ID = existing.ID
	return r.db.WithContext(ctx).Save(settings).Error
}

// AdminRecipients lists administrators with the routing flags, using
// setting defaults for admins who never saved settings.
func (r *Repository) AdminRecipients(ctx context.Context) ([]engine.AdminRecipient, error) {
	var admins []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Find(&admins).Error; err != nil {
		return nil, err
	}

	recipients := make([]engine.AdminRecipient, 0, len(admins))
	for _, admin := range admins {
		settings, err := r.GetSettings(ctx, admin.ID)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, engine.AdminRecipient{
			UserID:           admin.ID,
			Enabled:          settings.Enabled,
			ReceiveUnmatched: settings.ReceiveUnmatched,
		})
	}

	return recipients, nil
}

// Subscription repository methods

func (r *Repository) GetSubscription(ctx context.Context, userID, integrationID uint) (*models.IntegrationSubscription, error) {
	var sub models.IntegrationSubscription
	err := r.db.WithContext(ctx).Where("user_id = ? AND integration_id = ?", userID, integrationID).First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *Repository) UpsertSubscription(ctx context.Context, sub *models.IntegrationSubscription) error {
	var existing models.IntegrationSubscription
	err := r.db.WithContext(ctx).Where("user_id = ? AND integration_id = ?", sub.UserID, sub.IntegrationID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(sub).Error
	}
	if err != nil {
		return err
	}
	sub.ID = existing.ID
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *Repository) ListSubscriptions(ctx context.Context, userID uint) ([]models.IntegrationSubscription, error) {
	var subs []models.IntegrationSubscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Preload("Integration").Find(&subs).Error
	return subs, err
}

// Identity link repository methods

func (r *Repository) FindLinksByService(ctx context.Context, service, externalUsername string) ([]models.IdentityLink, error) {
	var links []models.IdentityLink
	err := r.db.WithContext(ctx).
		Where("service = ? AND LOWER(external_username) = LOWER(?)", service, externalUsername).
		Find(&links).Error
	return links, err
}

func (r *Repository) GetLink(ctx context.Context, userID uint, service string) (*models.IdentityLink, error) {
	var link models.IdentityLink
	err := r.db.WithContext(ctx).Where("user_id = ? AND service = ?", userID, service).First(&link).Error
	if err != nil {
		return nil, translate(err)
	}
	return &link, nil
}

func (r *Repository) ListLinks(ctx context.Context, userID uint) ([]models.IdentityLink, error) {
	var links []models.IdentityLink
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("service").Find(&links).Error
	return links, err
}

func (r *Repository) SaveLink(ctx context.Context, link *models.IdentityLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *Repository) DeleteLink(ctx context.Context, userID uint, service string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND service = ?", userID, service).Delete(&models.IdentityLink{}).Error
}

// Notification repository methods

func (r *Repository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *Repository) ListNotifications(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, err
}

func (r *Repository) CountNotifications(ctx context.Context, recipientID uint, unreadOnly bool) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	err := query.Count(&count).Error
	return int(count), err
}

func (r *Repository) MarkNotificationRead(ctx context.Context, recipientID, notificationID uint) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Update("read_at", &now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}
