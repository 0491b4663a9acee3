package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dnsforyou/idgw/internal/auth/jwt"
	"github.com/dnsforyou/idgw/internal/health"
	"github.com/dnsforyou/idgw/internal/keycloak"
	"github.com/dnsforyou/idgw/internal/observability"
	"github.com/dnsforyou/idgw/internal/outcome"
	"github.com/dnsforyou/idgw/internal/server/http/middleware"
	"github.com/dnsforyou/idgw/internal/store"
)

// stubService is a scriptable keycloak.Service. Zero value answers every
// operation with success.
type stubService struct {
	failWith string

	user  keycloak.User
	roles []keycloak.Role

	deletedUsers []string
	assignedTo   []string
}

var _ keycloak.Service = (*stubService)(nil)

func (s *stubService) fail() bool { return s.failWith != "" }

func (s *stubService) Login(context.Context, string, string) outcome.Outcome[keycloak.TokenResponse] {
	if s.fail() {
		return outcome.Fail[keycloak.TokenResponse](s.failWith)
	}
	return outcome.OK(keycloak.TokenResponse{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 300})
}

func (s *stubService) ValidateToken(context.Context, string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) Logout(context.Context, string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) CreateUser(context.Context, keycloak.NewUser) outcome.Outcome[string] {
	if s.fail() {
		return outcome.Fail[string](s.failWith)
	}
	return outcome.OK("new-user-id")
}

func (s *stubService) UpdateUser(context.Context, string, keycloak.UserUpdate) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) DeleteUser(_ context.Context, userID string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	s.deletedUsers = append(s.deletedUsers, userID)
	return outcome.OK(true)
}

func (s *stubService) AssignRoles(context.Context, string, []string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) RemoveRoles(context.Context, string, []string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) RealmRoles(context.Context) outcome.Outcome[[]keycloak.Role] {
	if s.fail() {
		return outcome.Fail[[]keycloak.Role](s.failWith)
	}
	return outcome.OK(s.roles)
}

func (s *stubService) Groups(context.Context) outcome.Outcome[[]keycloak.Group] {
	if s.fail() {
		return outcome.Fail[[]keycloak.Group](s.failWith)
	}
	return outcome.OK([]keycloak.Group{{ID: "g1", Name: "staff"}})
}

func (s *stubService) AssignToGroup(_ context.Context, userID, groupID string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	s.assignedTo = append(s.assignedTo, userID+"/"+groupID)
	return outcome.OK(true)
}

func (s *stubService) RemoveFromGroup(context.Context, string, string) outcome.Outcome[bool] {
	if s.fail() {
		return outcome.Fail[bool](s.failWith)
	}
	return outcome.OK(true)
}

func (s *stubService) UserByID(context.Context, string) outcome.Outcome[keycloak.User] {
	if s.fail() {
		return outcome.Fail[keycloak.User](s.failWith)
	}
	return outcome.OK(s.user)
}

func (s *stubService) UserByUsername(context.Context, string) outcome.Outcome[keycloak.User] {
	if s.fail() {
		return outcome.Fail[keycloak.User](s.failWith)
	}
	return outcome.OK(s.user)
}

func (s *stubService) UserByEmail(context.Context, string) outcome.Outcome[keycloak.User] {
	if s.fail() {
		return outcome.Fail[keycloak.User](s.failWith)
	}
	return outcome.OK(s.user)
}

// stubTokens maps bearer tokens to claims.
type stubTokens map[string]*jwt.Claims

func (s stubTokens) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("unknown token")
}

type routerFixture struct {
	service *stubService
	store   store.Store
	engine  *gin.Engine
}

func newRouterFixture(t *testing.T, opts RouterOptions) *routerFixture {
	t.Helper()
	ginModeOnce.Do(func() { gin.SetMode(gin.TestMode) })

	if opts.Service == nil {
		opts.Service = &stubService{user: keycloak.User{ID: "u1", Username: "alice"}}
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewZapLogger(zaptest.NewLogger(t))
	}

	engine := gin.New()
	NewRouter(opts).Register(engine)

	return &routerFixture{
		service: opts.Service.(*stubService),
		store:   opts.Store,
		engine:  engine,
	}
}

func (f *routerFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestLoginHandler(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	rec := f.do(t, http.MethodPost, "/auth/login", loginRequest{Username: "alice", Password: "pw"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.IsSuccess)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "at", data["access_token"])
}

func TestLoginHandler_Failure(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{failWith: "Invalid credentials"},
	})

	rec := f.do(t, http.MethodPost, "/auth/login", loginRequest{Username: "alice", Password: "bad"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.IsSuccess)
	assert.Equal(t, "Invalid credentials", env.Message)
}

func TestLoginHandler_InvalidPayload(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	rec := f.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "alice"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", decodeEnvelope(t, rec).Message)
}

func TestRegisterHandler(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	rec := f.do(t, http.MethodPost, "/auth/register", registerRequest{
		Username:  "bob",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Jones",
		Password:  "secret",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.IsSuccess)
	assert.Equal(t, "User created successfully", env.Message)
	assert.Equal(t, "new-user-id", env.Data)

	// The projection store picks up the new user.
	proj, err := f.store.Get(context.Background(), "new-user-id")
	require.NoError(t, err)
	assert.Equal(t, "bob", proj.Username)
	assert.Equal(t, "bob@example.com", proj.Email)
	assert.True(t, proj.Enabled)
}

func TestRegisterHandler_ProviderRejects(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{failWith: "User creation failed: conflict"},
	})

	rec := f.do(t, http.MethodPost, "/auth/register", registerRequest{
		Username: "bob", Email: "bob@example.com", Password: "secret",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := f.store.Get(context.Background(), "new-user-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogoutHandler(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	rec := f.do(t, http.MethodPost, "/auth/logout", logoutRequest{RefreshToken: "rt"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.IsSuccess)
	assert.Equal(t, "Logged out successfully", env.Message)
	assert.Nil(t, env.Data)
}

func TestUserLookupHandlers(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{user: keycloak.User{ID: "u1", Username: "alice", Email: "alice@example.com"}},
	})

	for _, path := range []string{
		"/users/u1",
		"/users/by-username/alice",
		"/users/by-email/alice@example.com",
	} {
		rec := f.do(t, http.MethodGet, path, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		env := decodeEnvelope(t, rec)
		data, ok := env.Data.(map[string]any)
		require.True(t, ok, path)
		assert.Equal(t, "alice", data["username"], path)
	}
}

func TestUserLookupHandler_NotFound(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{failWith: "User not found"},
	})

	rec := f.do(t, http.MethodGet, "/users/missing", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User not found", decodeEnvelope(t, rec).Message)
}

func TestUpdateUserHandler_RefreshesProjection(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{user: keycloak.User{
			ID: "u1", Username: "alice", Email: "new@example.com", Enabled: true,
		}},
	})

	rec := f.do(t, http.MethodPut, "/users/u1", updateUserRequest{
		Email: "new@example.com", FirstName: "Alice", LastName: "Smith",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully", decodeEnvelope(t, rec).Message)

	proj, err := f.store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", proj.Email)
}

func TestDeleteUserHandler_RemovesProjection(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	require.NoError(t, f.store.Put(context.Background(), store.UserProjection{ID: "u1", Username: "alice"}))

	rec := f.do(t, http.MethodDelete, "/users/u1", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully", decodeEnvelope(t, rec).Message)
	assert.Equal(t, []string{"u1"}, f.service.deletedUsers)

	_, err := f.store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRoleHandlers(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{
		Service: &stubService{roles: []keycloak.Role{{ID: "r1", Name: "admin"}}},
	})

	rec := f.do(t, http.MethodGet, "/roles", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/roles/u1", assignRolesRequest{Roles: []string{"admin"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roles assigned successfully", decodeEnvelope(t, rec).Message)

	rec = f.do(t, http.MethodDelete, "/roles/u1", assignRolesRequest{Roles: []string{"admin"}}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Roles removed successfully", decodeEnvelope(t, rec).Message)
}

func TestGroupHandlers(t *testing.T) {
	f := newRouterFixture(t, RouterOptions{})

	rec := f.do(t, http.MethodGet, "/groups", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/groups/u1/g1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User assigned to group successfully", decodeEnvelope(t, rec).Message)
	assert.Equal(t, []string{"u1/g1"}, f.service.assignedTo)

	rec = f.do(t, http.MethodDelete, "/groups/u1/g1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User removed from group successfully", decodeEnvelope(t, rec).Message)
}

func TestRouterAuthorization(t *testing.T) {
	tokens := stubTokens{
		"admin-token": {Subject: "a1", Roles: []string{"admin"}},
		"user-token":  {Subject: "u1", Roles: []string{"user"}},
	}

	f := newRouterFixture(t, RouterOptions{
		Validator: tokens,
		AdminRole: "admin",
	})

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		token    string
		expected int
	}{
		{name: "login needs no token", method: http.MethodPost, path: "/auth/login",
			body: loginRequest{Username: "a", Password: "b"}, expected: http.StatusOK},
		{name: "logout needs token", method: http.MethodPost, path: "/auth/logout",
			body: logoutRequest{RefreshToken: "rt"}, expected: http.StatusUnauthorized},
		{name: "lookup needs token", method: http.MethodGet, path: "/users/u1",
			expected: http.StatusUnauthorized},
		{name: "lookup with token", method: http.MethodGet, path: "/users/u1",
			token: "user-token", expected: http.StatusOK},
		{name: "update needs admin", method: http.MethodPut, path: "/users/u1",
			body: updateUserRequest{}, token: "user-token", expected: http.StatusForbidden},
		{name: "update as admin", method: http.MethodPut, path: "/users/u1",
			body: updateUserRequest{}, token: "admin-token", expected: http.StatusOK},
		{name: "assign roles needs admin", method: http.MethodPost, path: "/roles/u1",
			body: assignRolesRequest{Roles: []string{"x"}}, token: "user-token", expected: http.StatusForbidden},
		{name: "group assign needs admin", method: http.MethodPut, path: "/groups/u1/g1",
			token: "user-token", expected: http.StatusForbidden},
		{name: "group assign as admin", method: http.MethodPut, path: "/groups/u1/g1",
			token: "admin-token", expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.token != "" {
				headers["Authorization"] = "Bearer " + tt.token
			}
			rec := f.do(t, tt.method, tt.path, tt.body, headers)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRouterRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, nil)
	defer limiter.Stop()

	f := newRouterFixture(t, RouterOptions{Limiter: limiter})

	body := loginRequest{Username: "a", Password: "b"}
	first := f.do(t, http.MethodPost, "/auth/login", body, nil)
	second := f.do(t, http.MethodPost, "/auth/login", body, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Lookups are not rate limited.
	rec := f.do(t, http.MethodGet, "/users/u1", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	checker := health.NewChecker("test")
	f := newRouterFixture(t, RouterOptions{Checker: checker})

	rec := f.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "idgw_http_requests_total")
}
