package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecker_Health(t *testing.T) {
	c := NewChecker("1.2.3")

	resp := c.Health()
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotZero(t, resp.Timestamp)
}

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]CheckFunc
		expected Status
	}{
		{
			name:     "no checks",
			expected: StatusHealthy,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"a": func(context.Context) Check { return Check{Status: StatusHealthy} },
				"b": func(context.Context) Check { return Check{Status: StatusHealthy} },
			},
			expected: StatusHealthy,
		},
		{
			name: "one degraded",
			checks: map[string]CheckFunc{
				"a": func(context.Context) Check { return Check{Status: StatusHealthy} },
				"b": func(context.Context) Check { return Check{Status: StatusDegraded} },
			},
			expected: StatusDegraded,
		},
		{
			name: "unhealthy wins over degraded",
			checks: map[string]CheckFunc{
				"a": func(context.Context) Check { return Check{Status: StatusDegraded} },
				"b": func(context.Context) Check { return Check{Status: StatusUnhealthy} },
			},
			expected: StatusUnhealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker("test")
			for name, fn := range tt.checks {
				c.RegisterCheck(name, fn)
			}

			resp := c.Readiness(context.Background())
			assert.Equal(t, tt.expected, resp.Status)
			assert.Len(t, resp.Checks, len(tt.checks))
		})
	}
}

func TestChecker_HealthHandler(t *testing.T) {
	c := NewChecker("test")

	rec := httptest.NewRecorder()
	c.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
}

func TestChecker_ReadinessHandler_Unhealthy(t *testing.T) {
	c := NewChecker("test")
	c.RegisterCheck("provider", func(context.Context) Check {
		return Check{Status: StatusUnhealthy, Message: "connection refused"}
	})

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["provider"].Message)
}

func TestProviderCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/realms/dns/.well-known/openid-configuration" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"issuer": "test"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	check := ProviderCheck(server.URL, "dns", server.Client())
	assert.Equal(t, StatusHealthy, check(context.Background()).Status)

	badRealm := ProviderCheck(server.URL, "missing", server.Client())
	assert.Equal(t, StatusUnhealthy, badRealm(context.Background()).Status)
}

func TestProviderCheck_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	check := ProviderCheck(server.URL, "dns", nil)
	result := check(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.NotEmpty(t, result.Message)
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestStoreCheck(t *testing.T) {
	assert.Equal(t, StatusHealthy, StoreCheck(fakePinger{})(context.Background()).Status)

	failing := StoreCheck(fakePinger{err: errors.New("redis down")})
	result := failing(context.Background())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, "redis down", result.Message)
}
