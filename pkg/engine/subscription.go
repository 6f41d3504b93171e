package engine

import (
	"context"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// AdminRecipient is an administrator together with the two flags the
// router needs for fan-out decisions.
type AdminRecipient struct {
	UserID           uint
	Enabled          bool
	ReceiveUnmatched bool
}

// SubscriptionStore is the persistence needed by the subscription store.
type SubscriptionStore interface {
	GetSettings(ctx context.Context, userID uint) (*models.NotificationSettings, error)
	SaveSettings(ctx context.Context, settings *models.NotificationSettings) error
	GetSubscription(ctx context.Context, userID, integrationID uint) (*models.IntegrationSubscription, error)
	UpsertSubscription(ctx context.Context, sub *models.IntegrationSubscription) error
	AdminRecipients(ctx context.Context) ([]AdminRecipient, error)
}

// Subscriptions manages per-user notification settings and per-
// integration event opt-ins.
type Subscriptions struct {
	store     SubscriptionStore
	allowlist *EventAllowlist
	directory Directory
}

// NewSubscriptions creates a subscription store.
func NewSubscriptions(store SubscriptionStore, allowlist *EventAllowlist, directory Directory) *Subscriptions {
	return &Subscriptions{store: store, allowlist: allowlist, directory: directory}
}

// Settings returns the user's global notification settings, with
// defaults when none have been saved yet.
func (s *Subscriptions) Settings(ctx context.Context, userID uint) (*models.NotificationSettings, error) {
	return s.store.GetSettings(ctx, userID)
}

// UpdateSettings saves the user's global notification settings. The
// receive-unmatched flag is meaningful for administrators only but is
// stored for anyone; the router consults it only on the admin path.
func (s *Subscriptions) UpdateSettings(ctx context.Context, settings *models.NotificationSettings) error {
	return s.store.SaveSettings(ctx, settings)
}

// Subscription returns the user's opt-in state for an integration.
// Missing rows come back as a disabled subscription with no events.
func (s *Subscriptions) Subscription(ctx context.Context, userID uint, integration *models.Integration) (*models.IntegrationSubscription, error) {
	sub, err := s.store.GetSubscription(ctx, userID, integration.ID)
	if err == nil {
		return sub, nil
	}
	if err == ErrNotFound {
		return &models.IntegrationSubscription{
			UserID:        userID,
			IntegrationID: integration.ID,
			Enabled:       false,
			Events:        models.StringList{},
		}, nil
	}
	return nil, err
}

// SetSubscription replaces the user's opt-in for an integration. The
// chosen events must be within the user's current effective events for
// that integration; anything else is rejected with the offending id.
func (s *Subscriptions) SetSubscription(ctx context.Context, key string, integration *models.Integration, userID uint, enabled bool, events []string) error {
	principal, err := s.directory.PrincipalFor(ctx, userID)
	if err != nil {
		return err
	}

	allowed, err := s.allowlist.EffectiveEventsFor(ctx, key, principal)
	if err != nil {
		return err
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, e := range allowed {
		allowedSet[e] = struct{}{}
	}
	for _, e := range events {
		if _, ok := allowedSet[e]; !ok {
			return &InvalidEventError{Event: e}
		}
	}

	return s.store.UpsertSubscription(ctx, &models.IntegrationSubscription{
		UserID:        userID,
		IntegrationID: integration.ID,
		Enabled:       enabled,
		Events:        models.StringList(events),
	})
}

// IsSubscribed reports whether the user has opted into event for the
// integration: global notifications on, the subscription enabled, and
// the event among the chosen set. Stored selections that have since
// left the integration's user allowlist are not consulted here; the
// router only reaches this check for events currently in that list.
func (s *Subscriptions) IsSubscribed(ctx context.Context, userID uint, integration *models.Integration, event string) (bool, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return false, err
	}
	if !settings.Enabled {
		return false, nil
	}

	sub, err := s.Subscription(ctx, userID, integration)
	if err != nil {
		return false, err
	}

	return sub.Enabled && sub.Events.Contains(event), nil
}

// AdminRecipients returns every administrator with the flags the
// router fans out on.
func (s *Subscriptions) AdminRecipients(ctx context.Context) ([]AdminRecipient, error) {
	return s.store.AdminRecipients(ctx)
}
