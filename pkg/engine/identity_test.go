package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

func TestResolveCaseInsensitive(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "overseerr", "Alice", "alice@example.com", models.LinkMethodManual))

	userID, ok, err := resolver.Resolve(ctx, "overseerr", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(7), userID)

	userID, ok, err = resolver.Resolve(ctx, "overseerr", "  ALICE  ")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(7), userID)
}

func TestResolveUnmatched(t *testing.T) {
	resolver := NewIdentityResolver(newMemStore())

	_, ok, err := resolver.Resolve(context.Background(), "overseerr", "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty and whitespace-only actors never match anything.
	_, ok, err = resolver.Resolve(context.Background(), "overseerr", "   ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolveAmbiguousAcrossUsers(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "plex", "sam", "", models.LinkMethodManual))
	require.NoError(t, resolver.Link(ctx, 8, "plex", "Sam", "", models.LinkMethodManual))

	_, ok, err := resolver.Resolve(ctx, "plex", "sam")
	require.NoError(t, err)
	assert.False(t, ok, "a name claimed by two users resolves to neither")
}

func TestResolveScopedByService(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "overseerr", "sam", "", models.LinkMethodManual))
	require.NoError(t, resolver.Link(ctx, 8, "plex", "sam", "", models.LinkMethodManual))

	userID, ok, err := resolver.Resolve(ctx, "overseerr", "sam")
	require.NoError(t, err)
	assert.True(t, ok, "the same name on different services is not ambiguous")
	assert.Equal(t, uint(7), userID)
}

func TestManualCannotReplaceSSOLink(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "plex", "alice", "", models.LinkMethodSSO))

	err := resolver.Link(ctx, 7, "plex", "impostor", "", models.LinkMethodManual)
	assert.ErrorIs(t, err, ErrLinkManaged)

	// The managed link is untouched.
	link, err := store.GetLink(ctx, 7, "plex")
	require.NoError(t, err)
	assert.Equal(t, "alice", link.ExternalUsername)
}

func TestSSOOverwritesManualLink(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "plex", "alice-old", "", models.LinkMethodManual))
	require.NoError(t, resolver.Link(ctx, 7, "plex", "alice", "", models.LinkMethodSSO))

	link, err := store.GetLink(ctx, 7, "plex")
	require.NoError(t, err)
	assert.Equal(t, "alice", link.ExternalUsername)
	assert.Equal(t, models.LinkMethodSSO, link.Method)
}

func TestUnlinkRefusesSSOManagedLink(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "plex", "alice", "", models.LinkMethodSSO))

	assert.ErrorIs(t, resolver.Unlink(ctx, 7, "plex"), ErrLinkManaged)
	require.NoError(t, resolver.AdminUnlink(ctx, 7, "plex"))

	_, err := store.GetLink(ctx, 7, "plex")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnlinkManualLink(t *testing.T) {
	store := newMemStore()
	resolver := NewIdentityResolver(store)
	ctx := context.Background()

	require.NoError(t, resolver.Link(ctx, 7, "overseerr", "alice", "", models.LinkMethodManual))
	require.NoError(t, resolver.Unlink(ctx, 7, "overseerr"))

	_, ok, err := resolver.Resolve(ctx, "overseerr", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}
