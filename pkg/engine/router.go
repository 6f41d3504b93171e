package engine

import (
	"context"
	"fmt"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/log"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// Notification is one computed recipient of an inbound event, handed
// to the dispatch transport. Delivery is fire-and-forget from the
// router's perspective.
type Notification struct {
	RecipientID   uint
	IntegrationID *uint
	EventType     string
	Kind          models.NotificationKind
	Title         string
	Body          string
	Metadata      models.JSON
}

// Dispatcher accepts notifications for asynchronous delivery. Enqueue
// must not block.
type Dispatcher interface {
	Enqueue(n Notification)
}

// InboundEvent is one authenticated-pending webhook call.
type InboundEvent struct {
	Integration string
	EventType   string
	Actor       string
	Payload     models.JSON
}

// RouteResult summarizes the fan-out of one event.
type RouteResult struct {
	AdminNotified    int  `json:"admin_notified"`
	PersonalNotified bool `json:"personal_notified"`
	FallbackNotified int  `json:"fallback_notified"`
	Resolved         bool `json:"resolved"`
}

// RouterStore is the persistence the router needs directly.
type RouterStore interface {
	GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error)
	Directory
}

// Router orchestrates the processing of inbound webhook events:
// authenticate, fan out to administrators, fan out to the resolved
// user or to the unmatched fallback. It holds no state of its own and
// guarantees no idempotency; duplicate upstream deliveries produce
// duplicate notifications.
type Router struct {
	store      RouterStore
	tokens     *TokenManager
	shares     *ShareRegistry
	subs       *Subscriptions
	identities *IdentityResolver
	dispatch   Dispatcher
	logger     *log.Logger
}

// NewRouter creates a notification router.
func NewRouter(store RouterStore, tokens *TokenManager, shares *ShareRegistry, subs *Subscriptions, identities *IdentityResolver, dispatch Dispatcher, logger *log.Logger) *Router {
	return &Router{
		store:      store,
		tokens:     tokens,
		shares:     shares,
		subs:       subs,
		identities: identities,
		dispatch:   dispatch,
		logger:     logger,
	}
}

// Route processes one inbound event to completion. An invalid token
// returns ErrUnauthorized with no side effects; the caller must not
// reveal why authentication failed.
func (r *Router) Route(ctx context.Context, token string, ev InboundEvent) (*RouteResult, error) {
	if !r.tokens.Validate(ctx, ev.Integration, token) {
		return nil, ErrUnauthorized
	}

	integration, err := r.store.GetIntegrationByKey(ctx, ev.Integration)
	if err != nil {
		return nil, err
	}

	result := &RouteResult{}

	admins, err := r.subs.AdminRecipients(ctx)
	if err != nil {
		return nil, err
	}

	// Admin fan-out is independent of identity resolution:
	// administrators receive operational events regardless of whose
	// action triggered them.
	if integration.AdminEvents.Contains(ev.EventType) {
		for _, admin := range admins {
			if !admin.Enabled {
				continue
			}
			r.dispatch.Enqueue(r.adminNotification(integration, ev, admin.UserID))
			result.AdminNotified++
		}
	}

	if integration.UserEvents.Contains(ev.EventType) {
		resolved, err := r.routeUserEvent(ctx, integration, ev, admins, result)
		if err != nil {
			return nil, err
		}
		result.Resolved = resolved
	}

	if r.logger != nil {
		r.logger.LogRouting(ev.Integration, ev.EventType, result.AdminNotified, result.FallbackNotified, result.PersonalNotified, result.Resolved)
	}

	return result, nil
}

// routeUserEvent handles step 3 of the flow: resolve the external
// actor and either notify that user or fall back to the opted-in
// administrators. Resolution is binary per event, so a personal
// notification and the unmatched fallback never both fire.
func (r *Router) routeUserEvent(ctx context.Context, integration *models.Integration, ev InboundEvent, admins []AdminRecipient, result *RouteResult) (bool, error) {
	def, err := catalog.Lookup(integration.Type)
	if err != nil {
		return false, err
	}

	userID, ok, err := r.identities.Resolve(ctx, def.IdentityService, ev.Actor)
	if err != nil {
		return false, err
	}

	if !ok {
		for _, admin := range admins {
			if !admin.Enabled || !admin.ReceiveUnmatched {
				continue
			}
			r.dispatch.Enqueue(r.unmatchedNotification(integration, ev, admin.UserID))
			result.FallbackNotified++
		}
		return false, nil
	}

	principal, err := r.store.PrincipalFor(ctx, userID)
	if err != nil {
		if err == ErrNotFound {
			// Link points at a deleted account; treat as resolved but
			// undeliverable rather than leaking it to the fallback.
			return true, nil
		}
		return false, err
	}

	visible, err := r.shares.IsVisible(ctx, integration.Key, principal)
	if err != nil {
		return false, err
	}
	if !visible {
		return true, nil
	}

	subscribed, err := r.subs.IsSubscribed(ctx, userID, integration, ev.EventType)
	if err != nil {
		return false, err
	}
	if subscribed {
		r.dispatch.Enqueue(r.personalNotification(integration, ev, userID))
		result.PersonalNotified = true
	}

	return true, nil
}

func (r *Router) adminNotification(integration *models.Integration, ev InboundEvent, recipientID uint) Notification {
	return Notification{
		RecipientID:   recipientID,
		IntegrationID: &integration.ID,
		EventType:     ev.EventType,
		Kind:          models.KindAdmin,
		Title:         fmt.Sprintf("%s: %s", integrationTitle(integration), ev.EventType),
		Body:          payloadSummary(ev.Payload),
		Metadata:      ev.Payload,
	}
}

func (r *Router) personalNotification(integration *models.Integration, ev InboundEvent, recipientID uint) Notification {
	return Notification{
		RecipientID:   recipientID,
		IntegrationID: &integration.ID,
		EventType:     ev.EventType,
		Kind:          models.KindPersonal,
		Title:         fmt.Sprintf("%s: %s", integrationTitle(integration), ev.EventType),
		Body:          payloadSummary(ev.Payload),
		Metadata:      ev.Payload,
	}
}

func (r *Router) unmatchedNotification(integration *models.Integration, ev InboundEvent, recipientID uint) Notification {
	return Notification{
		RecipientID:   recipientID,
		IntegrationID: &integration.ID,
		EventType:     ev.EventType,
		Kind:          models.KindUnmatched,
		Title:         fmt.Sprintf("%s: unmatched %s", integrationTitle(integration), ev.EventType),
		Body:          fmt.Sprintf("No account matched actor %q.", ev.Actor),
		Metadata:      ev.Payload,
	}
}

func integrationTitle(integration *models.Integration) string {
	if integration.DisplayName != "" {
		return integration.DisplayName
	}
	return integration.Key
}

// payloadSummary pulls a human-readable line out of common payload
// fields; integrations differ on naming.
func payloadSummary(payload models.JSON) string {
	for _, field := range []string{"message", "subject", "body", "description"} {
		if v, ok := payload[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
