package config

import (
	"time"

	"github.com/dnsforyou/idgw/internal/observability"
)

// Config is the root configuration for the identity gateway.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Keycloak configures the identity provider connection.
	Keycloak KeycloakConfig `yaml:"keycloak"`

	// Auth configures inbound bearer token validation.
	Auth AuthConfig `yaml:"auth"`

	// Store configures the local user projection store.
	Store StoreConfig `yaml:"store"`

	// RateLimit configures rate limiting on the anonymous auth endpoints.
	RateLimit RateLimitConfig `yaml:"rateLimit"`

	// Logging configures structured logging.
	Logging observability.LogConfig `yaml:"logging"`

	// Tracing configures distributed tracing.
	Tracing observability.TracerConfig `yaml:"tracing"`

	// Vault configures secret resolution from HashiCorp Vault.
	Vault VaultConfig `yaml:"vault"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080".
	Address string `yaml:"address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout Duration `yaml:"readTimeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout Duration `yaml:"writeTimeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout Duration `yaml:"idleTimeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// KeycloakConfig configures the identity provider connection.
type KeycloakConfig struct {
	// Authority is the provider base URL.
	Authority string `yaml:"authority"`

	// Realm is the tenant namespace within the provider.
	Realm string `yaml:"realm"`

	// ClientID is the service client id.
	ClientID string `yaml:"clientId"`

	// ClientSecret is the service client secret. May be resolved from Vault.
	ClientSecret string `yaml:"clientSecret"`

	// AdminUsername is the privileged account username.
	AdminUsername string `yaml:"adminUsername"`

	// AdminPassword is the privileged account password. May be resolved from
	// Vault.
	AdminPassword string `yaml:"adminPassword"`

	// Timeout bounds each provider request.
	Timeout Duration `yaml:"timeout"`

	// TokenSafetyMargin is subtracted from the admin token lifetime.
	TokenSafetyMargin Duration `yaml:"tokenSafetyMargin"`

	// CircuitBreaker configures the breaker around provider calls.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// CircuitBreakerConfig configures the breaker around provider calls.
type CircuitBreakerConfig struct {
	// Enabled turns the breaker on.
	Enabled bool `yaml:"enabled"`

	// Threshold is the minimum request count before the failure ratio is
	// evaluated.
	Threshold int `yaml:"threshold"`

	// Timeout is how long the breaker stays open.
	Timeout Duration `yaml:"timeout"`
}

// AuthConfig configures inbound bearer token validation.
type AuthConfig struct {
	// Enabled turns inbound JWT validation on.
	Enabled bool `yaml:"enabled"`

	// Issuer overrides the expected issuer. When empty the issuer is derived
	// from the provider authority and realm.
	Issuer string `yaml:"issuer"`

	// JWKSRefreshInterval is the key set refresh interval.
	JWKSRefreshInterval Duration `yaml:"jwksRefreshInterval"`

	// ClockSkew is the acceptable clock skew when validating token times.
	ClockSkew Duration `yaml:"clockSkew"`

	// AdminRole is the realm role required for administrative endpoints.
	AdminRole string `yaml:"adminRole"`
}

// StoreConfig configures the local user projection store backed by Redis.
type StoreConfig struct {
	// Enabled turns the projection store on.
	Enabled bool `yaml:"enabled"`

	// Address is the Redis address, e.g. "localhost:6379".
	Address string `yaml:"address"`

	// Password is the Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`

	// KeyPrefix namespaces the projection keys.
	KeyPrefix string `yaml:"keyPrefix"`

	// DialTimeout bounds connection establishment.
	DialTimeout Duration `yaml:"dialTimeout"`
}

// RateLimitConfig configures rate limiting on the anonymous auth endpoints.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained per-client rate.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`

	// Burst is the per-client burst size.
	Burst int `yaml:"burst"`
}

// VaultConfig configures secret resolution from HashiCorp Vault.
type VaultConfig struct {
	// Enabled turns Vault secret resolution on.
	Enabled bool `yaml:"enabled"`

	// Address is the Vault server address.
	Address string `yaml:"address"`

	// Token is the Vault token.
	Token string `yaml:"token"`

	// MountPath is the KV v2 mount path.
	MountPath string `yaml:"mountPath"`

	// SecretPath is the path of the secret holding provider credentials.
	SecretPath string `yaml:"secretPath"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Keycloak: KeycloakConfig{
			Timeout:           Duration(30 * time.Second),
			TokenSafetyMargin: Duration(30 * time.Second),
			CircuitBreaker: CircuitBreakerConfig{
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
		},
		Auth: AuthConfig{
			Enabled:             true,
			JWKSRefreshInterval: Duration(15 * time.Minute),
			ClockSkew:           Duration(30 * time.Second),
			AdminRole:           "admin",
		},
		Store: StoreConfig{
			KeyPrefix:   "idgw:user:",
			DialTimeout: Duration(5 * time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Logging: observability.DefaultLogConfig(),
		Vault: VaultConfig{
			MountPath:  "secret",
			SecretPath: "idgw/keycloak",
		},
	}
}
