package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// memStore is an in-memory implementation of every store interface the
// engine consumes, keyed the way the repository keys things.
type memStore struct {
	mu sync.Mutex

	integrations  map[string]*models.Integration
	credentials   map[uint]*models.WebhookCredential
	settings      map[uint]*models.NotificationSettings
	subscriptions map[[2]uint]*models.IntegrationSubscription
	links         []*models.IdentityLink
	principals    map[uint]Principal
	admins        []AdminRecipient

	nextLinkID uint
}

func newMemStore() *memStore {
	return &memStore{
		integrations:  map[string]*models.Integration{},
		credentials:   map[uint]*models.WebhookCredential{},
		settings:      map[uint]*models.NotificationSettings{},
		subscriptions: map[[2]uint]*models.IntegrationSubscription{},
		principals:    map[uint]Principal{},
	}
}

func (m *memStore) addIntegration(integration *models.Integration) {
	m.integrations[integration.Key] = integration
}

func (m *memStore) GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	integration, ok := m.integrations[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *integration
	return &copied, nil
}

func (m *memStore) UpdateShareRule(ctx context.Context, key string, mode models.ShareMode, groups, users []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	integration, ok := m.integrations[key]
	if !ok {
		return ErrNotFound
	}
	integration.ShareMode = mode
	integration.ShareGroups = models.UintList(groups)
	integration.ShareUsers = models.UintList(users)
	return nil
}

func (m *memStore) UpdateAdminEvents(ctx context.Context, key string, events []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	integration, ok := m.integrations[key]
	if !ok {
		return ErrNotFound
	}
	integration.AdminEvents = models.StringList(events)
	return nil
}

func (m *memStore) UpdateUserEvents(ctx context.Context, key string, events []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	integration, ok := m.integrations[key]
	if !ok {
		return ErrNotFound
	}
	integration.UserEvents = models.StringList(events)
	return nil
}

func (m *memStore) GetCredential(ctx context.Context, integrationID uint) (*models.WebhookCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.credentials[integrationID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *cred
	return &copied, nil
}

func (m *memStore) ReplaceCredential(ctx context.Context, cred *models.WebhookCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[cred.IntegrationID] = cred
	return nil
}

func (m *memStore) DisableCredential(ctx context.Context, integrationID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.credentials[integrationID]
	if !ok {
		return ErrNotFound
	}
	cred.Enabled = false
	return nil
}

func (m *memStore) GetSettings(ctx context.Context, userID uint) (*models.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if settings, ok := m.settings[userID]; ok {
		copied := *settings
		return &copied, nil
	}
	return &models.NotificationSettings{UserID: userID, Enabled: true}, nil
}

func (m *memStore) SaveSettings(ctx context.Context, settings *models.NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settings.UserID] = settings
	return nil
}

func (m *memStore) GetSubscription(ctx context.Context, userID, integrationID uint) (*models.IntegrationSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[[2]uint{userID, integrationID}]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sub
	return &copied, nil
}

func (m *memStore) UpsertSubscription(ctx context.Context, sub *models.IntegrationSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[[2]uint{sub.UserID, sub.IntegrationID}] = sub
	return nil
}

func (m *memStore) AdminRecipients(ctx context.Context) ([]AdminRecipient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AdminRecipient(nil), m.admins...), nil
}

func (m *memStore) FindLinksByService(ctx context.Context, service, externalUsername string) ([]models.IdentityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IdentityLink
	for _, link := range m.links {
		if link.Service == service && strings.EqualFold(link.ExternalUsername, externalUsername) {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *memStore) GetLink(ctx context.Context, userID uint, service string) (*models.IdentityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, link := range m.links {
		if link.UserID == userID && link.Service == service {
			copied := *link
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) ListLinks(ctx context.Context, userID uint) ([]models.IdentityLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IdentityLink
	for _, link := range m.links {
		if link.UserID == userID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *memStore) SaveLink(ctx context.Context, link *models.IdentityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.links {
		if existing.UserID == link.UserID && existing.Service == link.Service {
			m.links[i] = link
			return nil
		}
	}
	m.nextLinkID++
	link.ID = m.nextLinkID
	m.links = append(m.links, link)
	return nil
}

func (m *memStore) DeleteLink(ctx context.Context, userID uint, service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, link := range m.links {
		if link.UserID == userID && link.Service == service {
			m.links = append(m.links[:i], m.links[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) PrincipalFor(ctx context.Context, userID uint) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	principal, ok := m.principals[userID]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return principal, nil
}

// captureDispatcher records every enqueued notification.
type captureDispatcher struct {
	mu            sync.Mutex
	notifications []Notification
}

func (d *captureDispatcher) Enqueue(n Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, n)
}

func (d *captureDispatcher) byKind(kind models.NotificationKind) []Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Notification
	for _, n := range d.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
