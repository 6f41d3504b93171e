package engine

import (
	"context"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// AllowlistStore is the persistence needed by the event allowlist.
type AllowlistStore interface {
	GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error)
	UpdateAdminEvents(ctx context.Context, key string, events []string) error
	UpdateUserEvents(ctx context.Context, key string, events []string) error
}

// EventAllowlist stores the admin- and user-visible event sets per
// integration and computes the effective allowed events for a
// principal. Admin and user sets are curated for different audiences
// and carry no required relationship to each other.
type EventAllowlist struct {
	store  AllowlistStore
	shares *ShareRegistry
}

// NewEventAllowlist creates an allowlist backed by store. Visibility
// gating goes through shares so the sharing check lives in one place.
func NewEventAllowlist(store AllowlistStore, shares *ShareRegistry) *EventAllowlist {
	return &EventAllowlist{store: store, shares: shares}
}

// EffectiveEventsFor returns the events the principal may receive from
// the integration. Administrators get the admin set. Non-admins get
// the user set, or nothing at all when the integration is not shared
// with them.
func (a *EventAllowlist) EffectiveEventsFor(ctx context.Context, key string, p Principal) ([]string, error) {
	integration, err := a.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if p.Admin {
		return append([]string(nil), integration.AdminEvents...), nil
	}

	visible, err := a.shares.IsVisible(ctx, key, p)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []string{}, nil
	}

	return append([]string(nil), integration.UserEvents...), nil
}

// SetAdminEvents replaces the admin-visible event set. Every event id
// must be in the integration type's catalog.
func (a *EventAllowlist) SetAdminEvents(ctx context.Context, key string, events []string) error {
	integration, err := a.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return err
	}

	if bad := catalog.ValidateEvents(integration.Type, events); bad != "" {
		return &InvalidEventError{Event: bad}
	}

	return a.store.UpdateAdminEvents(ctx, key, events)
}

// SetUserEvents replaces the user-visible event set. Shrinking the set
// does not touch stored user subscriptions; selections outside the new
// set simply stop matching.
func (a *EventAllowlist) SetUserEvents(ctx context.Context, key string, events []string) error {
	integration, err := a.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return err
	}

	if bad := catalog.ValidateEvents(integration.Type, events); bad != "" {
		return &InvalidEventError{Event: bad}
	}

	return a.store.UpdateUserEvents(ctx, key, events)
}
