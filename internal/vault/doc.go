// Package vault resolves identity provider credentials from HashiCorp Vault.
// Secrets are read once at startup from a KV v2 engine; when Vault is
// disabled the configuration values are used as-is.
package vault
