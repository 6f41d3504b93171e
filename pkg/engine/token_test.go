package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

func newTokenFixture() (*memStore, *TokenManager) {
	store := newMemStore()
	store.addIntegration(&models.Integration{ID: 1, Key: "requests", Type: "overseerr", Enabled: true})
	return store, NewTokenManager(store)
}

func TestIssueAndValidate(t *testing.T) {
	_, tokens := newTokenFixture()
	ctx := context.Background()

	token, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)
	assert.Len(t, token, 64, "32 random bytes, hex encoded")

	assert.True(t, tokens.Validate(ctx, "requests", token))
	assert.False(t, tokens.Validate(ctx, "requests", "wrong"))
	assert.False(t, tokens.Validate(ctx, "requests", ""))
	assert.False(t, tokens.Validate(ctx, "other", token))
}

func TestIssueStoresDigestOnly(t *testing.T) {
	store, tokens := newTokenFixture()
	ctx := context.Background()

	token, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)

	cred, err := store.GetCredential(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, token, cred.TokenDigest)
	assert.Equal(t, utils.HashToken(token), cred.TokenDigest)
	assert.Equal(t, token[:8], cred.TokenPrefix)
}

func TestRotationInvalidatesPriorToken(t *testing.T) {
	_, tokens := newTokenFixture()
	ctx := context.Background()

	first, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)
	second, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	assert.False(t, tokens.Validate(ctx, "requests", first))
	assert.True(t, tokens.Validate(ctx, "requests", second))
}

func TestRevokeDisablesCredential(t *testing.T) {
	_, tokens := newTokenFixture()
	ctx := context.Background()

	token, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)
	require.NoError(t, tokens.Revoke(ctx, "requests"))

	assert.False(t, tokens.Validate(ctx, "requests", token))

	cred, err := tokens.Describe(ctx, "requests")
	require.NoError(t, err)
	assert.False(t, cred.Enabled)
}

func TestValidateDisabledIntegration(t *testing.T) {
	store, tokens := newTokenFixture()
	ctx := context.Background()

	token, err := tokens.Issue(ctx, "requests")
	require.NoError(t, err)

	store.integrations["requests"].Enabled = false
	assert.False(t, tokens.Validate(ctx, "requests", token),
		"a disabled integration rejects even its own token")
}

func TestValidateNoCredentialConfigured(t *testing.T) {
	_, tokens := newTokenFixture()

	assert.False(t, tokens.Validate(context.Background(), "requests", "anything"))
}
