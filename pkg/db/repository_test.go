package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/config"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	database, err := New(&config.DatabaseConfig{
		Driver:       "sqlite",
		Database:     "file::memory:?cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	return NewRepository(database)
}

func TestNotFoundTranslation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	_, err := repo.GetIntegrationByKey(ctx, "ghost")
	assert.ErrorIs(t, err, engine.ErrNotFound)

	_, err = repo.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestFindLinksByServiceCaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveLink(ctx, &models.IdentityLink{
		UserID: 1, Service: "overseerr", ExternalUsername: "Alice", Method: models.LinkMethodManual,
	}))
	require.NoError(t, repo.SaveLink(ctx, &models.IdentityLink{
		UserID: 2, Service: "plex", ExternalUsername: "alice", Method: models.LinkMethodManual,
	}))

	links, err := repo.FindLinksByService(ctx, "overseerr", "ALICE")
	require.NoError(t, err)
	require.Len(t, links, 1, "matching is case-insensitive and service-scoped")
	assert.Equal(t, uint(1), links[0].UserID)
}

func TestUnlinkThenRelinkSameService(t *testing.T) {
	repo := newTestRepository(t)
	resolver := engine.NewIdentityResolver(repo)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 1, "overseerr", "alice", "", models.LinkMethodManual))
	require.NoError(t, resolver.Unlink(ctx, 1, "overseerr"))

	// The (user, service) slot must be reusable immediately.
	require.NoError(t, resolver.Link(ctx, 1, "overseerr", "alice2", "", models.LinkMethodManual))

	userID, ok, err := resolver.Resolve(ctx, "overseerr", "alice2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(1), userID)

	links, err := repo.ListLinks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "alice2", links[0].ExternalUsername)
}

func TestReplaceCredentialLeavesSingleRow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	integration := &models.Integration{Key: "requests", Type: "overseerr", Enabled: true}
	require.NoError(t, repo.CreateIntegration(ctx, integration))

	first := &models.WebhookCredential{IntegrationID: integration.ID, TokenDigest: "d1", TokenPrefix: "p1", Enabled: true}
	require.NoError(t, repo.ReplaceCredential(ctx, first))
	second := &models.WebhookCredential{IntegrationID: integration.ID, TokenDigest: "d2", TokenPrefix: "p2", Enabled: true}
	require.NoError(t, repo.ReplaceCredential(ctx, second))

	cred, err := repo.GetCredential(ctx, integration.ID)
	require.NoError(t, err)
	assert.Equal(t, "d2", cred.TokenDigest)

	var count int64
	require.NoError(t, repo.db.Model(&models.WebhookCredential{}).
		Where("integration_id = ?", integration.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpdateShareRuleUnknownKey(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.UpdateShareRule(context.Background(), "ghost", models.ShareEveryone, nil, nil)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestDeleteIntegrationCascades(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	integration := &models.Integration{Key: "requests", Type: "overseerr", Enabled: true}
	require.NoError(t, repo.CreateIntegration(ctx, integration))
	require.NoError(t, repo.ReplaceCredential(ctx, &models.WebhookCredential{
		IntegrationID: integration.ID, TokenDigest: "d", TokenPrefix: "p", Enabled: true,
	}))
	require.NoError(t, repo.UpsertSubscription(ctx, &models.IntegrationSubscription{
		UserID: 1, IntegrationID: integration.ID, Enabled: true, Events: models.StringList{"request.approved"},
	}))

	require.NoError(t, repo.DeleteIntegration(ctx, "requests"))

	_, err := repo.GetIntegrationByKey(ctx, "requests")
	assert.ErrorIs(t, err, engine.ErrNotFound)
	_, err = repo.GetCredential(ctx, integration.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)
	subs, err := repo.ListSubscriptions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestAdminRecipients(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	admin := &models.User{Username: "root", IsAdmin: true}
	require.NoError(t, repo.CreateUser(ctx, admin))
	user := &models.User{Username: "alice"}
	require.NoError(t, repo.CreateUser(ctx, user))

	require.NoError(t, repo.SaveSettings(ctx, &models.NotificationSettings{
		UserID: admin.ID, Enabled: true, ReceiveUnmatched: true,
	}))

	admins, err := repo.AdminRecipients(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, admin.ID, admins[0].UserID)
	assert.True(t, admins[0].ReceiveUnmatched)
}

func TestMarkNotificationReadScopedToRecipient(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	notification := &models.Notification{RecipientID: 1, EventType: "generic.info", Kind: models.KindAdmin, Title: "t"}
	require.NoError(t, repo.CreateNotification(ctx, notification))

	// Another user cannot mark it.
	err := repo.MarkNotificationRead(ctx, 2, notification.ID)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	require.NoError(t, repo.MarkNotificationRead(ctx, 1, notification.ID))
	listed, err := repo.ListNotifications(ctx, 1, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].ReadAt)
}
