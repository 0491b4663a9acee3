package vault

import (
	"context"
	"errors"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/dnsforyou/idgw/internal/config"
	"github.com/dnsforyou/idgw/internal/observability"
)

// Secret keys expected at the configured KV path.
const (
	keyClientSecret  = "clientSecret"
	keyAdminPassword = "adminPassword"
)

// ErrDisabled is returned when an operation requires Vault but it is
// disabled.
var ErrDisabled = errors.New("vault is disabled")

// Client reads secrets from Vault.
type Client interface {
	// IsEnabled reports whether Vault is configured.
	IsEnabled() bool

	// ReadKV reads a KV v2 secret at the given path under the configured
	// mount.
	ReadKV(ctx context.Context, path string) (map[string]interface{}, error)
}

// apiClient implements Client on the Vault HTTP API.
type apiClient struct {
	api       *vaultapi.Client
	mountPath string
	logger    observability.Logger
}

// disabledClient is returned when Vault is not enabled.
type disabledClient struct{}

func (disabledClient) IsEnabled() bool { return false }

func (disabledClient) ReadKV(context.Context, string) (map[string]interface{}, error) {
	return nil, ErrDisabled
}

// New creates a Vault client from the gateway configuration. A disabled
// configuration yields a client whose reads fail with ErrDisabled.
func New(cfg config.VaultConfig, logger observability.Logger) (Client, error) {
	if !cfg.Enabled {
		return disabledClient{}, nil
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	apiCfg := vaultapi.DefaultConfig()
	apiCfg.Address = cfg.Address

	api, err := vaultapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}

	logger.Info("vault client initialized",
		observability.String("address", cfg.Address),
		observability.String("mountPath", cfg.MountPath),
	)

	return &apiClient{
		api:       api,
		mountPath: cfg.MountPath,
		logger:    logger,
	}, nil
}

func (c *apiClient) IsEnabled() bool { return true }

// ReadKV reads a KV v2 secret at the given path under the configured mount.
func (c *apiClient) ReadKV(ctx context.Context, path string) (map[string]interface{}, error) {
	secret, err := c.api.KVv2(c.mountPath).Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vault read failed for %s/%s: %w", c.mountPath, path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s/%s is empty", c.mountPath, path)
	}
	return secret.Data, nil
}

// ResolveKeycloakSecrets fills the provider client secret and admin password
// from Vault when they are not already set in the configuration. Values
// present in the configuration win over Vault.
func ResolveKeycloakSecrets(ctx context.Context, client Client, cfg *config.Config, logger observability.Logger) error {
	if client == nil || !client.IsEnabled() {
		return nil
	}
	if cfg.Keycloak.ClientSecret != "" && cfg.Keycloak.AdminPassword != "" {
		return nil
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	data, err := client.ReadKV(ctx, cfg.Vault.SecretPath)
	if err != nil {
		return err
	}

	if cfg.Keycloak.ClientSecret == "" {
		secret, ok := data[keyClientSecret].(string)
		if !ok || secret == "" {
			return fmt.Errorf("vault secret %s does not contain %q", cfg.Vault.SecretPath, keyClientSecret)
		}
		cfg.Keycloak.ClientSecret = secret
		logger.Info("provider client secret resolved from vault")
	}

	if cfg.Keycloak.AdminPassword == "" {
		password, ok := data[keyAdminPassword].(string)
		if !ok || password == "" {
			return fmt.Errorf("vault secret %s does not contain %q", cfg.Vault.SecretPath, keyAdminPassword)
		}
		cfg.Keycloak.AdminPassword = password
		logger.Info("provider admin password resolved from vault")
	}

	return nil
}
