package observability

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
)

// ContextWithRequestID returns a new context carrying the request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id from the context, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// FieldsFromContext extracts correlation fields from the context.
func FieldsFromContext(ctx context.Context) []Field {
	var fields []Field
	if id, ok := RequestIDFromContext(ctx); ok && id != "" {
		fields = append(fields, String("requestId", id))
	}
	return fields
}
