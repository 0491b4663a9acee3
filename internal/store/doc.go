// Package store provides the local user projection store. The projection is
// a denormalized copy of provider user records, maintained by the HTTP layer
// after successful user mutations. Redis and in-memory backends are
// available.
package store
