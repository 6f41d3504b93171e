package webserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/db"
	"github.com/Framerrr/Framerr-app-sub000/pkg/log"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

func newSSOFixture(t *testing.T, provider string) (*Server, *db.Repository) {
	t.Helper()
	cfg := testConfig()
	cfg.SSO.Enabled = true
	cfg.SSO.Provider = provider
	cfg.SSO.UsernameHeader = "Remote-User"
	cfg.SSO.EmailHeader = "Remote-Email"
	cfg.SSO.NameHeader = "Remote-Name"
	cfg.SSO.GroupsHeader = "Remote-Groups"

	logger, err := log.New(&cfg.Logging)
	require.NoError(t, err)

	database, err := db.New(&cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	server, err := New(cfg, database, logger, &recordingDispatcher{})
	require.NoError(t, err)
	return server, db.NewRepository(database)
}

func ssoLogin(t *testing.T, server *Server, username, groups string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/sso", nil)
	req.Header.Set("Remote-User", username)
	req.Header.Set("Remote-Email", username+"@example.com")
	if groups != "" {
		req.Header.Set("Remote-Groups", groups)
	}
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestSSOLoginLinksKnownIdentityService(t *testing.T) {
	server, repo := newSSOFixture(t, "plex")
	ctx := context.Background()

	w := ssoLogin(t, server, "alice", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	link, err := repo.GetLink(ctx, user.ID, "plex")
	require.NoError(t, err)
	assert.Equal(t, models.LinkMethodSSO, link.Method)
	assert.Equal(t, "alice", link.ExternalUsername)
}

func TestSSOLoginUnknownProviderSkipsLink(t *testing.T) {
	server, repo := newSSOFixture(t, "proxy")
	ctx := context.Background()

	w := ssoLogin(t, server, "bob", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := repo.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	links, err := repo.ListLinks(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, links, "a provider outside the catalog authenticates without linking")
}

func TestSSOLoginSyncsGroups(t *testing.T) {
	server, repo := newSSOFixture(t, "plex")
	ctx := context.Background()

	w := ssoLogin(t, server, "carol", "media, family")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user, err := repo.GetUserByUsername(ctx, "carol")
	require.NoError(t, err)

	principal, err := repo.PrincipalFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, principal.Groups, 2)

	// Re-login is idempotent for memberships.
	w = ssoLogin(t, server, "carol", "media, family")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	principal, err = repo.PrincipalFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, principal.Groups, 2)
}

func TestSSOLoginDisabled(t *testing.T) {
	f := newWebhookFixture(t)

	w := ssoLogin(t, f.server, "alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
