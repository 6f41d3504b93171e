package engine

import (
	"context"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

const tokenPrefixLen = 8

// CredentialStore is the persistence needed by the token manager.
type CredentialStore interface {
	GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error)
	GetCredential(ctx context.Context, integrationID uint) (*models.WebhookCredential, error)
	// ReplaceCredential removes any existing credential for the
	// integration and inserts cred in the same transaction.
	ReplaceCredential(ctx context.Context, cred *models.WebhookCredential) error
	DisableCredential(ctx context.Context, integrationID uint) error
}

// TokenManager issues, rotates, and validates the bearer token gating
// inbound webhook calls for each integration. Only a SHA-256 digest is
// persisted; the full token is returned exactly once, from Issue.
type TokenManager struct {
	store CredentialStore
	gen   *utils.TokenGenerator
}

// NewTokenManager creates a token manager backed by store.
func NewTokenManager(store CredentialStore) *TokenManager {
	return &TokenManager{store: store, gen: utils.NewTokenGenerator()}
}

// Issue generates a fresh token for the integration and persists it as
// the sole credential, invalidating any prior token in the same
// transaction. There is no window in which both tokens validate.
func (m *TokenManager) Issue(ctx context.Context, key string) (string, error) {
	integration, err := m.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return "", err
	}

	token, err := m.gen.GenerateWebhookToken()
	if err != nil {
		return "", err
	}

	cred := &models.WebhookCredential{
		IntegrationID: integration.ID,
		TokenDigest:   utils.HashToken(token),
		TokenPrefix:   token[:tokenPrefixLen],
		Enabled:       true,
	}

	if err := m.store.ReplaceCredential(ctx, cred); err != nil {
		return "", err
	}

	return token, nil
}

// Validate reports whether presented is the active token for the
// integration. It never returns an error to the caller: a disabled
// integration, a missing credential, and a wrong token are all plain
// "false", so an unauthenticated sender learns nothing about the
// configuration. Digests are compared in constant time.
func (m *TokenManager) Validate(ctx context.Context, key, presented string) bool {
	if presented == "" {
		return false
	}

	integration, err := m.store.GetIntegrationByKey(ctx, key)
	if err != nil || !integration.Enabled {
		return false
	}

	cred, err := m.store.GetCredential(ctx, integration.ID)
	if err != nil || !cred.Enabled {
		return false
	}

	return utils.DigestsEqual(cred.TokenDigest, utils.HashToken(presented))
}

// Revoke disables the integration's credential without issuing a
// replacement.
func (m *TokenManager) Revoke(ctx context.Context, key string) error {
	integration, err := m.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return err
	}
	return m.store.DisableCredential(ctx, integration.ID)
}

// Describe returns the masked credential state for display: prefix,
// enabled flag, and creation time. The full token is never recoverable
// after Issue.
func (m *TokenManager) Describe(ctx context.Context, key string) (*models.WebhookCredential, error) {
	integration, err := m.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return m.store.GetCredential(ctx, integration.ID)
}
