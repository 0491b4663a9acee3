package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validation errors.
var (
	// ErrMissingServerAddress indicates that the listen address is not set.
	ErrMissingServerAddress = errors.New("server address is required")

	// ErrMissingAuthority indicates that the provider base URL is not set.
	ErrMissingAuthority = errors.New("keycloak authority is required")

	// ErrMissingRealm indicates that the realm is not set.
	ErrMissingRealm = errors.New("keycloak realm is required")

	// ErrMissingClientID indicates that the client id is not set.
	ErrMissingClientID = errors.New("keycloak client id is required")

	// ErrMissingStoreAddress indicates that the store is enabled without an
	// address.
	ErrMissingStoreAddress = errors.New("store address is required when the store is enabled")

	// ErrMissingVaultAddress indicates that Vault is enabled without an
	// address.
	ErrMissingVaultAddress = errors.New("vault address is required when vault is enabled")
)

// Validate checks the configuration for structural errors. Admin credentials
// are not required here because they may be resolved from Vault after
// loading.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		return ErrMissingServerAddress
	}

	if err := validateKeycloak(&cfg.Keycloak); err != nil {
		return err
	}

	if cfg.Store.Enabled && strings.TrimSpace(cfg.Store.Address) == "" {
		return ErrMissingStoreAddress
	}

	if cfg.Vault.Enabled && strings.TrimSpace(cfg.Vault.Address) == "" {
		return ErrMissingVaultAddress
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requestsPerSecond must be positive, got %v", cfg.RateLimit.RequestsPerSecond)
		}
		if cfg.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive, got %d", cfg.RateLimit.Burst)
		}
	}

	return nil
}

func validateKeycloak(kc *KeycloakConfig) error {
	if strings.TrimSpace(kc.Authority) == "" {
		return ErrMissingAuthority
	}
	if _, err := url.ParseRequestURI(kc.Authority); err != nil {
		return fmt.Errorf("invalid keycloak authority %q: %w", kc.Authority, err)
	}
	if strings.TrimSpace(kc.Realm) == "" {
		return ErrMissingRealm
	}
	if strings.TrimSpace(kc.ClientID) == "" {
		return ErrMissingClientID
	}
	if kc.Timeout < 0 {
		return fmt.Errorf("keycloak timeout must not be negative, got %v", kc.Timeout.Duration())
	}
	return nil
}
