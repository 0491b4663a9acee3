// Package middleware provides gin middleware for the identity gateway HTTP
// server: request ids, request logging, panic recovery, bearer token
// authentication, and rate limiting for the anonymous auth endpoints.
package middleware
