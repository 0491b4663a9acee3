// Package jwt validates inbound bearer tokens issued by the identity
// provider. Signing keys are fetched from the realm's JWKS endpoint and
// cached with periodic refresh.
package jwt
