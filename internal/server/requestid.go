package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id on every response.
const RequestIDHeader = "x-request-id"

// RequestIDKey is the context key for request IDs
type contextKey string

const RequestIDKey contextKey = "request_id"

// WithRequestID stores id in ctx for downstream handlers.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID retrieves the request ID from context.
// Returns an empty string if no request ID is set.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// RequestIDMiddleware makes sure the request has an id in its context and
// writes it to the x-request-id response header. The id opened by
// TraceMiddleware is reused; a new UUID is generated only when the layer runs
// on its own. The header is set before delegating so that error responses and
// recovered panics carry it too.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestID(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
			ctx = WithRequestID(ctx, requestID)
		}

		// Ids are canonical UUID strings, always valid header values
		if _, err := uuid.Parse(requestID); err != nil {
			panic(fmt.Sprintf("request id %q is not a valid UUID: %v", requestID, err))
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
