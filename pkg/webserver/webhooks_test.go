package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Framerrr/Framerr-app-sub000/pkg/config"
	"github.com/Framerrr/Framerr-app-sub000/pkg/db"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/log"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// recordingDispatcher captures notifications instead of persisting them
type recordingDispatcher struct {
	mu            sync.Mutex
	notifications []engine.Notification
}

func (d *recordingDispatcher) Enqueue(n engine.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifications = append(d.notifications, n)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.notifications)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Database.Driver = "sqlite"
	cfg.Database.Database = "file::memory:?cache=shared"
	cfg.Database.MaxOpenConns = 1
	cfg.Database.MaxIdleConns = 1
	cfg.Security.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.Security.JWTExpirationHours = 1
	cfg.Security.SessionCookieName = "test_session"
	cfg.Security.RateLimitEnabled = false
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "stdout"
	return cfg
}

type webhookFixture struct {
	server     *Server
	repo       *db.Repository
	dispatcher *recordingDispatcher
	token      string
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig()

	logger, err := log.New(&cfg.Logging)
	require.NoError(t, err)

	database, err := db.New(&cfg.Database)
	require.NoError(t, err)
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	dispatcher := &recordingDispatcher{}
	server, err := New(cfg, database, logger, dispatcher)
	require.NoError(t, err)

	repo := db.NewRepository(database)

	admin := &models.User{Username: "root", IsAdmin: true}
	require.NoError(t, repo.CreateUser(ctx, admin))
	require.NoError(t, repo.SaveSettings(ctx, &models.NotificationSettings{
		UserID: admin.ID, Enabled: true, ReceiveUnmatched: true,
	}))

	alice := &models.User{Username: "alice"}
	require.NoError(t, repo.CreateUser(ctx, alice))
	require.NoError(t, repo.SaveSettings(ctx, &models.NotificationSettings{UserID: alice.ID, Enabled: true}))

	integration := &models.Integration{
		Key:         "requests",
		Type:        "overseerr",
		DisplayName: "Requests",
		Enabled:     true,
		ShareMode:   models.ShareEveryone,
		AdminEvents: models.StringList{"request.pending"},
		UserEvents:  models.StringList{"request.approved"},
	}
	require.NoError(t, repo.CreateIntegration(ctx, integration))

	require.NoError(t, server.identities.Link(ctx, alice.ID, "overseerr", "alice", "", models.LinkMethodManual))
	require.NoError(t, server.subs.SetSubscription(ctx, "requests", integration, alice.ID, true, []string{"request.approved"}))

	token, err := server.tokens.Issue(ctx, "requests")
	require.NoError(t, err)

	return &webhookFixture{server: server, repo: repo, dispatcher: dispatcher, token: token}
}

func (f *webhookFixture) post(t *testing.T, key, token string, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/webhook/%s", key), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.server.router.ServeHTTP(w, req)
	return w
}

func TestWebhookAcceptsValidToken(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.post(t, "requests", f.token, map[string]interface{}{
		"event":                "request.approved",
		"requestedBy_username": "alice",
		"message":              "Dune is ready",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, models.KindPersonal, f.dispatcher.notifications[0].Kind)
}

func TestResponsesCarryRequestID(t *testing.T) {
	f := newWebhookFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	f.server.router.ServeHTTP(w, req)

	first := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, first)
	assert.Regexp(t, "^[a-f0-9]{32}$", first)

	w = httptest.NewRecorder()
	f.server.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEqual(t, first, w.Header().Get("X-Request-ID"))
}

func TestWebhookRejectsBadTokenSilently(t *testing.T) {
	f := newWebhookFixture(t)

	// Well-formed but wrong token: bare 401, no reason in the body.
	w := f.post(t, "requests", "deadbeefdeadbeefdeadbeefdeadbeef", map[string]interface{}{
		"event": "request.approved",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Zero(t, f.dispatcher.count())
}

func TestWebhookRejectsMissingToken(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.post(t, "requests", "", map[string]interface{}{"event": "request.approved"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWebhookUnknownIntegrationLooksLikeBadToken(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.post(t, "ghost", f.token, map[string]interface{}{"event": "request.approved"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Body.String(), "unknown keys are indistinguishable from bad tokens")
}

func TestWebhookTokenViaQueryParameter(t *testing.T) {
	f := newWebhookFixture(t)

	body, err := json.Marshal(map[string]interface{}{
		"event":                "request.approved",
		"requestedBy_username": "alice",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/requests?token="+f.token, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.server.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWebhookMalformedEventIdentifier(t *testing.T) {
	f := newWebhookFixture(t)

	// An authenticated sender gets told; a bad token still only gets 401.
	w := f.post(t, "requests", f.token, map[string]interface{}{"event": "NOT AN EVENT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "requests", f.token, map[string]interface{}{"payload": "no event field"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.post(t, "requests", "deadbeefdeadbeefdeadbeefdeadbeef", map[string]interface{}{"event": "NOT AN EVENT"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWebhookUnmatchedActorFallsBack(t *testing.T) {
	f := newWebhookFixture(t)

	w := f.post(t, "requests", f.token, map[string]interface{}{
		"event":                "request.approved",
		"requestedBy_username": "stranger",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, models.KindUnmatched, f.dispatcher.notifications[0].Kind)
}

func TestWebhookRotatedTokenWindow(t *testing.T) {
	f := newWebhookFixture(t)

	fresh, err := f.server.tokens.Issue(context.Background(), "requests")
	require.NoError(t, err)

	w := f.post(t, "requests", f.token, map[string]interface{}{"event": "request.approved"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "the replaced token stops working immediately")

	w = f.post(t, "requests", fresh, map[string]interface{}{
		"event":                "request.approved",
		"requestedBy_username": "alice",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
