package keycloak

import (
	"net/http"
	"strings"
	"time"

	"github.com/dnsforyou/idgw/internal/observability"
)

// Default configuration values.
const (
	// DefaultTimeout bounds every outbound call to the provider.
	DefaultTimeout = 30 * time.Second

	// DefaultTokenSafetyMargin is subtracted from the provider-declared
	// token lifetime so the admin session is refreshed before the provider
	// would reject it.
	DefaultTokenSafetyMargin = 30 * time.Second
)

// CircuitBreakerConfig configures the optional circuit breaker around
// provider calls. Only transport failures trip the breaker; provider business
// failures (non-2xx responses) do not.
type CircuitBreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool

	// Threshold is the minimum number of requests before the failure ratio
	// is evaluated.
	Threshold int

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// Config holds configuration for the identity-provider gateway.
type Config struct {
	// Authority is the provider base URL, e.g. "http://localhost:8081".
	Authority string

	// Realm is the tenant namespace within the provider.
	Realm string

	// ClientID is the service client used for both end-user and admin
	// password grants.
	ClientID string

	// ClientSecret is the service client secret.
	ClientSecret string

	// AdminUsername is the privileged account used to mint admin sessions.
	AdminUsername string

	// AdminPassword is the privileged account password.
	AdminPassword string

	// Timeout is the timeout for provider requests.
	Timeout time.Duration

	// TokenSafetyMargin is the buffer subtracted from the declared admin
	// token lifetime.
	TokenSafetyMargin time.Duration

	// CircuitBreaker configures the optional breaker around provider calls.
	CircuitBreaker CircuitBreakerConfig

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *http.Client

	// Logger is the logger to use (optional).
	Logger observability.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		TokenSafetyMargin: DefaultTokenSafetyMargin,
	}
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Authority) == "" {
		return ErrMissingAuthority
	}
	if strings.TrimSpace(c.Realm) == "" {
		return ErrMissingRealm
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return ErrMissingClientID
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		return ErrMissingAdminCredentials
	}
	return nil
}
