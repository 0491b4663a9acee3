package keycloak

import "errors"

// Common errors for the identity-provider gateway.
var (
	// ErrAdminAuthFailed indicates that the admin session could not be
	// established. It aborts the enclosing operation.
	ErrAdminAuthFailed = errors.New("admin authentication failed")

	// ErrMissingAuthority indicates that the provider base URL is not set.
	ErrMissingAuthority = errors.New("missing authority")

	// ErrMissingRealm indicates that the realm is not set.
	ErrMissingRealm = errors.New("missing realm")

	// ErrMissingClientID indicates that the client id is not set.
	ErrMissingClientID = errors.New("missing client ID")

	// ErrMissingAdminCredentials indicates that the admin account
	// credentials are not set.
	ErrMissingAdminCredentials = errors.New("missing admin credentials")

	// ErrRequestFailed indicates a transport-level failure reaching the
	// provider.
	ErrRequestFailed = errors.New("provider request failed")

	// ErrInvalidResponse indicates a 2xx response whose body does not match
	// the expected shape.
	ErrInvalidResponse = errors.New("invalid provider response")
)
