package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

func newSubscriptionFixture() (*memStore, *Subscriptions) {
	store := newMemStore()
	store.addIntegration(&models.Integration{
		ID:         1,
		Key:        "requests",
		Type:       "overseerr",
		Enabled:    true,
		ShareMode:  models.ShareEveryone,
		UserEvents: models.StringList{"request.approved", "request.available"},
	})
	store.principals[7] = Principal{UserID: 7}
	shares := NewShareRegistry(store)
	allowlist := NewEventAllowlist(store, shares)
	return store, NewSubscriptions(store, allowlist, store)
}

func TestSubscriptionDefaultsDisabled(t *testing.T) {
	store, subs := newSubscriptionFixture()

	integration, err := store.GetIntegrationByKey(context.Background(), "requests")
	require.NoError(t, err)

	sub, err := subs.Subscription(context.Background(), 7, integration)
	require.NoError(t, err)
	assert.False(t, sub.Enabled, "users start unsubscribed")
	assert.Empty(t, sub.Events)
}

func TestSetSubscriptionRoundTrip(t *testing.T) {
	store, subs := newSubscriptionFixture()
	ctx := context.Background()

	integration, err := store.GetIntegrationByKey(ctx, "requests")
	require.NoError(t, err)

	err = subs.SetSubscription(ctx, "requests", integration, 7, true, []string{"request.approved"})
	require.NoError(t, err)

	sub, err := subs.Subscription(ctx, 7, integration)
	require.NoError(t, err)
	assert.True(t, sub.Enabled)
	assert.Equal(t, models.StringList{"request.approved"}, sub.Events)
}

func TestSetSubscriptionRejectsEventOutsideEffectiveSet(t *testing.T) {
	store, subs := newSubscriptionFixture()
	ctx := context.Background()

	integration, err := store.GetIntegrationByKey(ctx, "requests")
	require.NoError(t, err)

	// request.pending is a real catalog event, but not in the user set.
	err = subs.SetSubscription(ctx, "requests", integration, 7, true, []string{"request.pending"})
	require.Error(t, err)
	var invalid *InvalidEventError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "request.pending", invalid.Event)
}

func TestIsSubscribedRequiresGlobalEnable(t *testing.T) {
	store, subs := newSubscriptionFixture()
	ctx := context.Background()

	integration, err := store.GetIntegrationByKey(ctx, "requests")
	require.NoError(t, err)
	require.NoError(t, subs.SetSubscription(ctx, "requests", integration, 7, true, []string{"request.approved"}))

	subscribed, err := subs.IsSubscribed(ctx, 7, integration, "request.approved")
	require.NoError(t, err)
	assert.True(t, subscribed)

	// Global mute wins over any per-integration opt-in.
	require.NoError(t, subs.UpdateSettings(ctx, &models.NotificationSettings{UserID: 7, Enabled: false}))
	subscribed, err = subs.IsSubscribed(ctx, 7, integration, "request.approved")
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestIsSubscribedStaleSelectionInert(t *testing.T) {
	store, subs := newSubscriptionFixture()
	ctx := context.Background()

	integration, err := store.GetIntegrationByKey(ctx, "requests")
	require.NoError(t, err)
	require.NoError(t, subs.SetSubscription(ctx, "requests", integration, 7, true, []string{"request.approved"}))

	// The allowlist shrinks out from under the stored selection. The
	// selection stays stored but stops matching.
	require.NoError(t, store.UpdateUserEvents(ctx, "requests", []string{"request.available"}))

	sub, err := subs.Subscription(ctx, 7, integration)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"request.approved"}, sub.Events, "stored selection survives the shrink")
}

func TestAdminRecipients(t *testing.T) {
	store, subs := newSubscriptionFixture()
	store.admins = []AdminRecipient{
		{UserID: 1, Enabled: true, ReceiveUnmatched: true},
		{UserID: 2, Enabled: false},
	}

	admins, err := subs.AdminRecipients(context.Background())
	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.True(t, admins[0].ReceiveUnmatched)
}
