package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/example/jwt-cookie-auth/config"
	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/example/jwt-cookie-auth/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// authClient is a bare module that depends on auth and keeps the service
// container it is handed, the same way APIModule does.
type authClient struct {
	container mono.ServiceContainer
}

func (m *authClient) Name() string                  { return "auth-client" }
func (m *authClient) Dependencies() []string        { return []string{"auth"} }
func (m *authClient) Start(_ context.Context) error { return nil }
func (m *authClient) Stop(_ context.Context) error  { return nil }
func (m *authClient) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.container = container
	}
}

type busServer struct {
	*testServer
	authModule *auth.AuthModule
	adapter    *auth.AuthAdapter
}

// newBusServer starts a mono application with the auth module over an
// in-memory database and serves the HTTP app through AuthAdapter.
func newBusServer(t *testing.T) *busServer {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
		mono.WithNATSDontListen(),
		mono.WithNATSInProcessConn(),
	)
	require.NoError(t, err)

	authModule := auth.NewModule(config.Config{
		DBPath:        fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		AccessSecret:  "access-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-for-tests",
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "test",
		BcryptCost:    bcrypt.MinCost,
	}, &mockLogger{})
	client := &authClient{}

	require.NoError(t, app.Register(authModule))
	require.NoError(t, app.Register(client))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})

	require.NotNil(t, client.container, "auth container not handed to dependent module")
	adapter := auth.NewAuthAdapter(client.container)

	return &busServer{
		testServer: &testServer{app: NewApp(adapter, nil, &mockLogger{})},
		authModule: authModule,
		adapter:    adapter,
	}
}

func TestBus_UserScenario(t *testing.T) {
	srv := newBusServer(t)

	signup := srv.signup(t, "u1", "u1@x.com", "p1")
	require.Equal(t, http.StatusCreated, signup.status, string(signup.body))
	assert.NotEmpty(t, signup.tokens(t).AccessToken)
	assert.Equal(t, int64(900), signup.tokens(t).ExpiresIn)

	cookie := signup.refreshCookie()
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, RefreshPath, cookie.Path)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), cookie.Expires, time.Minute)
	tokenA := cookie.Value

	rotated := srv.do(t, http.MethodGet, "/api/auth/refresh", nil, withRefreshCookie(tokenA))
	require.Equal(t, http.StatusOK, rotated.status, string(rotated.body))
	require.NotNil(t, rotated.refreshCookie())
	tokenB := rotated.refreshCookie().Value
	assert.NotEqual(t, tokenA, tokenB)

	reuse := srv.do(t, http.MethodGet, "/api/auth/refresh", nil, withRefreshCookie(tokenA))
	assert.Equal(t, http.StatusUnauthorized, reuse.status)
	assert.JSONEq(t, unauthorizedBody, string(reuse.body))

	access := rotated.tokens(t).AccessToken
	profile := srv.do(t, http.MethodGet, "/api/auth/profile", nil, withBearer(access))
	require.Equal(t, http.StatusOK, profile.status)
	var got ProfileResponse
	require.NoError(t, json.Unmarshal(profile.body, &got))
	assert.Equal(t, "u1", got.Username)
	assert.Equal(t, "u1@x.com", got.Email)

	logout := srv.do(t, http.MethodGet, "/api/auth/logout", nil, withBearer(access))
	require.Equal(t, http.StatusOK, logout.status)

	after := srv.do(t, http.MethodGet, "/api/auth/refresh", nil, withRefreshCookie(tokenB))
	assert.Equal(t, http.StatusUnauthorized, after.status)

	login := srv.login(t, "u1", "p1")
	require.Equal(t, http.StatusOK, login.status)
	assert.NotNil(t, login.refreshCookie())
}

func TestBus_ErrorMapping(t *testing.T) {
	srv := newBusServer(t)
	require.Equal(t, http.StatusCreated, srv.signup(t, "u1", "u1@x.com", "p1").status)

	tests := []struct {
		name           string
		username       string
		email          string
		expectedStatus int
		expectedField  string
	}{
		{"validation keeps the field", "u2", "not-an-email", http.StatusBadRequest, "email"},
		{"conflict", "u1", "other@x.com", http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.signup(t, tt.username, tt.email, "p1")
			assert.Equal(t, tt.expectedStatus, resp.status)
			assert.Nil(t, resp.refreshCookie())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(resp.body, &body))
			assert.Equal(t, tt.expectedField, body.Field)
		})
	}

	wrong := srv.login(t, "u1", "wrong")
	assert.Equal(t, http.StatusUnauthorized, wrong.status)
	assert.JSONEq(t, unauthorizedBody, string(wrong.body))
}

func TestBus_InternalErrorIs500(t *testing.T) {
	srv := newBusServer(t)
	signup := srv.signup(t, "u1", "u1@x.com", "p1")
	require.Equal(t, http.StatusCreated, signup.status)

	// Closing the store makes every database access fail.
	require.NoError(t, srv.authModule.Stop(context.Background()))

	resp := srv.signup(t, "u2", "u2@x.com", "p1")
	assert.Equal(t, http.StatusInternalServerError, resp.status)
	assert.NotContains(t, string(resp.body), "sql")

	resp = srv.do(t, http.MethodGet, "/api/auth/profile", nil, withBearer(signup.tokens(t).AccessToken))
	assert.Equal(t, http.StatusInternalServerError, resp.status)
}

func TestBus_AdapterVerifyToken(t *testing.T) {
	srv := newBusServer(t)
	ctx := context.Background()

	session, err := srv.adapter.Signup(ctx, "u1", "u1@x.com", "p1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), session.RefreshExpiresAt, time.Minute)

	payload, err := srv.adapter.VerifyToken(ctx, session.AccessToken, domain.AccessClass)
	require.NoError(t, err)
	assert.Equal(t, "u1", payload.Username)
	assert.NotEmpty(t, payload.UserID)
	assert.False(t, payload.ExpiresAt.IsZero())

	refresh, err := srv.adapter.VerifyToken(ctx, session.RefreshToken, domain.RefreshClass)
	require.NoError(t, err)
	assert.Equal(t, payload.UserID, refresh.UserID)

	tests := []struct {
		name  string
		token string
		class domain.SecretClass
	}{
		{"garbage", "not-a-token", domain.AccessClass},
		{"access token as refresh", session.AccessToken, domain.RefreshClass},
		{"refresh token as access", session.RefreshToken, domain.AccessClass},
		{"unknown class", session.AccessToken, domain.SecretClass("bogus")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.adapter.VerifyToken(ctx, tt.token, tt.class)
			assert.ErrorIs(t, err, auth.ErrUnauthorized)
		})
	}

	// Logout of an unknown user is not an error.
	assert.NoError(t, srv.adapter.Logout(ctx, "missing"))

	_, err = srv.adapter.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
