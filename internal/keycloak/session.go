package keycloak

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dnsforyou/idgw/internal/observability"
)

// adminSession is an immutable snapshot of a privileged provider session.
// Sessions are replaced wholesale, never mutated in place.
type adminSession struct {
	accessToken string
	expiresAt   time.Time
}

// valid reports whether the session is still usable at the given instant.
func (s *adminSession) valid(now time.Time) bool {
	return s != nil && s.accessToken != "" && now.Before(s.expiresAt)
}

// sessionManager maintains the cached admin session used for admin REST
// calls. Concurrent callers may race past an expired session and trigger
// duplicate password grants; the last writer wins and every caller still
// receives a valid token.
type sessionManager struct {
	client       *restClient
	clientID     string
	clientSecret string
	username     string
	password     string
	safetyMargin time.Duration
	logger       observability.Logger

	// now is replaceable in tests.
	now func() time.Time

	mu      sync.RWMutex
	session *adminSession
}

// newSessionManager builds a sessionManager from the gateway configuration.
func newSessionManager(cfg *Config, client *restClient, logger observability.Logger) *sessionManager {
	margin := cfg.TokenSafetyMargin
	if margin <= 0 {
		margin = DefaultTokenSafetyMargin
	}

	return &sessionManager{
		client:       client,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		username:     cfg.AdminUsername,
		password:     cfg.AdminPassword,
		safetyMargin: margin,
		logger:       logger,
		now:          time.Now,
	}
}

// Token returns a valid admin access token, reusing the cached session when
// it has not reached its safety-adjusted expiry and minting a fresh one
// otherwise.
func (m *sessionManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	session := m.session
	m.mu.RUnlock()

	if session.valid(m.now()) {
		adminTokenCacheHits.Inc()
		return session.accessToken, nil
	}
	adminTokenCacheMisses.Inc()

	return m.refresh(ctx)
}

// refresh performs the admin password grant and installs the new session.
func (m *sessionManager) refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", m.clientID)
	if m.clientSecret != "" {
		form.Set("client_secret", m.clientSecret)
	}
	form.Set("username", m.username)
	form.Set("password", m.password)
	form.Set("grant_type", "password")

	resp, err := m.client.postForm(ctx, m.client.tokenURL(), form)
	if err != nil {
		adminTokenRefreshTotal.WithLabelValues(metricResultNetworkError).Inc()
		return "", fmt.Errorf("%w: %v", ErrAdminAuthFailed, err)
	}
	if !resp.ok() {
		adminTokenRefreshTotal.WithLabelValues(metricResultHTTPError).Inc()
		return "", fmt.Errorf("%w: status %d", ErrAdminAuthFailed, resp.Status)
	}

	var tr TokenResponse
	if err := resp.decode(&tr); err != nil {
		adminTokenRefreshTotal.WithLabelValues(metricResultHTTPError).Inc()
		return "", fmt.Errorf("%w: %v", ErrAdminAuthFailed, err)
	}
	if tr.AccessToken == "" {
		adminTokenRefreshTotal.WithLabelValues(metricResultHTTPError).Inc()
		return "", fmt.Errorf("%w: response carried no access token", ErrAdminAuthFailed)
	}

	now := m.now()
	session := &adminSession{
		accessToken: tr.AccessToken,
		expiresAt:   now.Add(time.Duration(tr.ExpiresIn)*time.Second - m.safetyMargin),
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	adminTokenRefreshTotal.WithLabelValues(metricResultSuccess).Inc()
	m.logger.Debug("admin session refreshed",
		observability.Time("expiresAt", session.expiresAt),
	)

	return session.accessToken, nil
}
