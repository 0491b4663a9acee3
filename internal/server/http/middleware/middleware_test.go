package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dnsforyou/idgw/internal/auth/jwt"
	"github.com/dnsforyou/idgw/internal/observability"
)

var ginTestModeOnce sync.Once

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ginTestModeOnce.Do(func() { gin.SetMode(gin.TestMode) })
	return gin.New()
}

func testLogger(t *testing.T) observability.Logger {
	t.Helper()
	return observability.NewZapLogger(zaptest.NewLogger(t))
}

func TestRequestID_Generated(t *testing.T) {
	r := newTestRouter(t)
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.NotEmpty(t, GetRequestID(c))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_InboundHeaderHonored(t *testing.T) {
	r := newTestRouter(t)
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
}

func TestLogging_PassesThrough(t *testing.T) {
	r := newTestRouter(t)
	r.Use(RequestID(), Logging(testLogger(t)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(t)
	r.Use(RequestID(), Recovery(testLogger(t)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2, testLogger(t))
	defer rl.Stop()

	r := newTestRouter(t)
	r.Use(rl.Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	// Burst of 2 allowed, third rejected.
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1, testLogger(t))
	defer rl.Stop()

	r := newTestRouter(t)
	r.Use(rl.Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(addr string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

// stubValidator validates any token equal to "good-token".
type stubValidator struct {
	claims *jwt.Claims
}

func (s *stubValidator) Validate(_ context.Context, token string) (*jwt.Claims, error) {
	if token != "good-token" {
		return nil, errors.New("bad token")
	}
	return s.claims, nil
}

func authTestRouter(t *testing.T, claims *jwt.Claims, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	r := newTestRouter(t)
	handlers := append([]gin.HandlerFunc{Auth(&stubValidator{claims: claims}, testLogger(t))}, extra...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/protected", handlers...)
	return r
}

func TestAuth(t *testing.T) {
	claims := &jwt.Claims{Subject: "user-1", Roles: []string{"user"}}

	tests := []struct {
		name       string
		authHeader string
		expected   int
	}{
		{name: "valid token", authHeader: "Bearer good-token", expected: http.StatusOK},
		{name: "missing header", authHeader: "", expected: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc", expected: http.StatusUnauthorized},
		{name: "invalid token", authHeader: "Bearer bad-token", expected: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := authTestRouter(t, claims)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestAuth_ClaimsAvailable(t *testing.T) {
	claims := &jwt.Claims{Subject: "user-1", Username: "bob"}
	r := newTestRouter(t)
	r.GET("/protected", Auth(&stubValidator{claims: claims}, testLogger(t)), func(c *gin.Context) {
		got := GetClaims(c)
		require.NotNil(t, got)
		assert.Equal(t, "bob", got.Username)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []string
		expected int
	}{
		{name: "has role", roles: []string{"user", "admin"}, expected: http.StatusOK},
		{name: "lacks role", roles: []string{"user"}, expected: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &jwt.Claims{Subject: "user-1", Roles: tt.roles}
			r := authTestRouter(t, claims, RequireRole("admin"))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer good-token")

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	r := newTestRouter(t)
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
