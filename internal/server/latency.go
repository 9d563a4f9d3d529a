package server

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/yourkin666/server-go/internal/server"

// LatencyMiddleware times the downstream chain and emits exactly one
// "request completed" record per request with method, path, status_code and
// elapsed_ms. The record is written from a defer, so it is also emitted when
// a downstream handler panics; in that case status_code is 500 and the panic
// keeps unwinding to the recoverer. The response is never altered.
//
// Durations and counts are also recorded on the global OpenTelemetry meter,
// which is a no-op unless the process installs a provider.
func LatencyMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	duration, requests := instruments(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newStatusRecorder(w)
			panicked := true

			defer func() {
				elapsed := time.Since(start)
				status := wrapped.statusCode
				if panicked {
					status = http.StatusInternalServerError
				}

				attrs := []slog.Attr{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status_code", status),
					slog.Int64("elapsed_ms", elapsed.Milliseconds()),
				}
				if panicked {
					attrs = append(attrs, slog.Bool("panic", true))
				}
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)

				set := metric.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.Int("http.response.status_code", status),
				)
				duration.Record(r.Context(), float64(elapsed)/float64(time.Millisecond), set)
				requests.Add(r.Context(), 1, set)
			}()

			next.ServeHTTP(wrapped, r)
			panicked = false
		})
	}
}

func instruments(logger *slog.Logger) (metric.Float64Histogram, metric.Int64Counter) {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration of inbound HTTP requests."),
	)
	if err != nil {
		logger.Warn("failed to create duration histogram", slog.String("error", err.Error()))
		duration, _ = fallback.Float64Histogram("http.server.request.duration")
	}

	requests, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of inbound HTTP requests."),
	)
	if err != nil {
		logger.Warn("failed to create request counter", slog.String("error", err.Error()))
		requests, _ = fallback.Int64Counter("http.server.requests")
	}

	return duration, requests
}
