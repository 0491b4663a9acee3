// Package keycloak implements the identity-provider gateway.
//
// The gateway owns a cached administrative session against the provider and
// exposes one method per domain operation (login, user lifecycle, role and
// group assignment, lookups). Every method returns an outcome.Outcome: all
// transport failures, non-2xx responses and malformed payloads are mapped
// into failure outcomes at the gateway boundary and never escape as errors
// or panics.
//
// Internally the package is split into two facilities:
//
//   - sessionManager acquires and caches a single admin access token via the
//     password grant, refreshing it before the provider-declared expiry.
//   - restClient builds authenticated HTTP requests against the provider's
//     REST surface, bounded by the configured timeout and optionally guarded
//     by a circuit breaker.
package keycloak
