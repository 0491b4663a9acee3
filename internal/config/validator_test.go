package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Keycloak.Authority = "http://localhost:8081"
	cfg.Keycloak.Realm = "dns"
	cfg.Keycloak.ClientID = "dns-api"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing server address",
			mutate:  func(c *Config) { c.Server.Address = "" },
			wantErr: ErrMissingServerAddress,
		},
		{
			name:    "missing authority",
			mutate:  func(c *Config) { c.Keycloak.Authority = "" },
			wantErr: ErrMissingAuthority,
		},
		{
			name:    "missing realm",
			mutate:  func(c *Config) { c.Keycloak.Realm = "" },
			wantErr: ErrMissingRealm,
		},
		{
			name:    "missing client id",
			mutate:  func(c *Config) { c.Keycloak.ClientID = "" },
			wantErr: ErrMissingClientID,
		},
		{
			name: "store enabled without address",
			mutate: func(c *Config) {
				c.Store.Enabled = true
				c.Store.Address = ""
			},
			wantErr: ErrMissingStoreAddress,
		},
		{
			name: "vault enabled without address",
			mutate: func(c *Config) {
				c.Vault.Enabled = true
			},
			wantErr: ErrMissingVaultAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidate_NilConfig(t *testing.T) {
	require.Error(t, Validate(nil))
}

func TestValidate_InvalidAuthority(t *testing.T) {
	cfg := validConfig()
	cfg.Keycloak.Authority = "not a url"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid keycloak authority")
}

func TestValidate_RateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 0

	require.Error(t, Validate(cfg))

	cfg.RateLimit.RequestsPerSecond = 10
	cfg.RateLimit.Burst = 0
	require.Error(t, Validate(cfg))

	cfg.RateLimit.Burst = 20
	require.NoError(t, Validate(cfg))
}
