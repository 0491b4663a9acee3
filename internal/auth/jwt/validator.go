package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/dnsforyou/idgw/internal/observability"
)

// Default validator settings.
const (
	// DefaultRefreshInterval is the minimum JWKS refresh interval.
	DefaultRefreshInterval = 15 * time.Minute

	// DefaultClockSkew is the acceptable clock skew for time-based claims.
	DefaultClockSkew = 30 * time.Second
)

// Validation errors.
var (
	// ErrMissingIssuer indicates that the expected issuer is not configured.
	ErrMissingIssuer = errors.New("issuer is required")

	// ErrMissingJWKSURL indicates that the JWKS endpoint is not configured.
	ErrMissingJWKSURL = errors.New("JWKS URL is required")

	// ErrInvalidToken indicates that the token failed validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the validated identity extracted from a bearer token.
type Claims struct {
	// Subject is the provider user id.
	Subject string

	// Username is the preferred username, when present.
	Username string

	// Email is the email claim, when present.
	Email string

	// Roles are the realm roles granted to the subject.
	Roles []string
}

// HasRole reports whether the subject holds the given realm role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Config holds validator configuration.
type Config struct {
	// Issuer is the expected token issuer, e.g.
	// "http://localhost:8081/realms/dns".
	Issuer string

	// JWKSURL is the realm's JWKS endpoint. When empty it is derived from
	// the issuer.
	JWKSURL string

	// RefreshInterval is the minimum JWKS refresh interval.
	RefreshInterval time.Duration

	// ClockSkew is the acceptable clock skew for time-based claims.
	ClockSkew time.Duration

	// Logger is the logger to use (optional).
	Logger observability.Logger
}

// IssuerForRealm derives the issuer URL from a provider authority and realm.
func IssuerForRealm(authority, realm string) string {
	return strings.TrimRight(authority, "/") + "/realms/" + realm
}

// Validator validates bearer tokens against the provider's signing keys.
type Validator struct {
	issuer    string
	keySet    jwk.Set
	clockSkew time.Duration
	logger    observability.Logger
}

// NewValidator creates a Validator backed by a refreshing JWKS cache. The
// context bounds the lifetime of the background refresh.
func NewValidator(ctx context.Context, cfg *Config) (*Validator, error) {
	if cfg == nil || cfg.Issuer == "" {
		return nil, ErrMissingIssuer
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = strings.TrimRight(cfg.Issuer, "/") + "/protocol/openid-connect/certs"
	}

	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = DefaultClockSkew
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(refresh)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint: %w", err)
	}

	logger.Info("token validator initialized",
		observability.String("issuer", cfg.Issuer),
		observability.String("jwksUrl", jwksURL),
	)

	return &Validator{
		issuer:    cfg.Issuer,
		keySet:    jwk.NewCachedSet(cache, jwksURL),
		clockSkew: skew,
		logger:    logger,
	}, nil
}

// NewValidatorWithKeySet creates a Validator over a fixed key set. Intended
// for tests.
func NewValidatorWithKeySet(issuer string, keySet jwk.Set) (*Validator, error) {
	if issuer == "" {
		return nil, ErrMissingIssuer
	}
	if keySet == nil {
		return nil, ErrMissingJWKSURL
	}
	return &Validator{
		issuer:    issuer,
		keySet:    keySet,
		clockSkew: DefaultClockSkew,
		logger:    observability.NopLogger(),
	}, nil
}

// Validate verifies the token's signature, issuer, and time claims, and
// extracts the identity claims.
func (v *Validator) Validate(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithContext(ctx),
		jwt.WithKeySet(v.keySet),
		jwt.WithIssuer(v.issuer),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{
		Subject: token.Subject(),
		Roles:   realmRoles(token),
	}
	if username, ok := token.Get("preferred_username"); ok {
		claims.Username, _ = username.(string)
	}
	if email, ok := token.Get("email"); ok {
		claims.Email, _ = email.(string)
	}

	return claims, nil
}

// realmRoles extracts realm_access.roles from the token, tolerating absent
// or malformed claims.
func realmRoles(token jwt.Token) []string {
	raw, ok := token.Get("realm_access")
	if !ok {
		return nil
	}
	access, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	rawRoles, ok := access["roles"].([]interface{})
	if !ok {
		return nil
	}

	roles := make([]string, 0, len(rawRoles))
	for _, r := range rawRoles {
		if role, ok := r.(string); ok {
			roles = append(roles, role)
		}
	}
	return roles
}
