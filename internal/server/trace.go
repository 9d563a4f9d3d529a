package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yourkin666/server-go/internal/logging"
)

// RequestScopeGroup is the log group holding the per-request fields.
const RequestScopeGroup = "request"

// TraceMiddleware opens the request scope. It generates the request id, and
// attaches {method, uri, version, request_id, client_ip} to the context so
// that every record logged with it downstream carries them under the
// "request" group. The active OpenTelemetry span is tagged with the same
// values. The response is not touched.
func TraceMiddleware(logger *slog.Logger, logStart bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			clientIP := clientIP(r)

			uri := r.RequestURI
			if uri == "" {
				uri = r.URL.String()
			}

			ctx := WithRequestID(r.Context(), requestID)
			ctx = logging.WithAttrs(ctx, slog.Group(RequestScopeGroup,
				slog.String("method", r.Method),
				slog.String("uri", uri),
				slog.String("version", r.Proto),
				slog.String("request_id", requestID),
				slog.String("client_ip", clientIP),
			))

			trace.SpanFromContext(ctx).SetAttributes(
				attribute.String("http.request.id", requestID),
				attribute.String("client.address", clientIP),
				attribute.String("url.full", uri),
			)

			if logStart {
				logger.InfoContext(ctx, "request started")
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP returns the first X-Forwarded-For entry, or "unknown".
func clientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return "unknown"
	}
	first, _, _ := strings.Cut(forwarded, ",")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return "unknown"
}
