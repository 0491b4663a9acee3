package health

import (
	"context"
	"net/http"
	"strings"
)

// ProviderCheck probes the identity provider's OpenID Connect discovery
// document for the given realm.
func ProviderCheck(authority, realm string, client *http.Client) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	discoveryURL := strings.TrimRight(authority, "/") +
		"/realms/" + realm + "/.well-known/openid-configuration"

	return func(ctx context.Context) Check {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}

		resp, err := client.Do(req)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return Check{Status: StatusUnhealthy, Message: "discovery document returned " + resp.Status}
		}
		return Check{Status: StatusHealthy}
	}
}

// Pinger is anything that can verify its backend connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreCheck pings the user projection store.
func StoreCheck(store Pinger) CheckFunc {
	return func(ctx context.Context) Check {
		if err := store.Ping(ctx); err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Check{Status: StatusHealthy}
	}
}
