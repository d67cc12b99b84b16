package request_id

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

func With(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request ID or an empty string.
func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKey{}).(string); ok {
		return requestID
	}
	return ""
}

// Generate attaches a new random request ID to ctx.
func Generate(ctx context.Context) (context.Context, string) {
	requestID := uuid.NewString()
	return With(ctx, requestID), requestID
}
