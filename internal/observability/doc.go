// Package observability provides structured logging, request correlation and
// distributed tracing for the identity gateway.
//
// Logging is built on zap behind a small Logger interface so that packages
// depend on the interface rather than on zap directly. Tracing is exported
// through OTLP/gRPC when enabled and is a no-op otherwise.
package observability
