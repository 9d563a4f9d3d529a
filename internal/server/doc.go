/*
Package server wires the HTTP surface: the chi router, the request pipeline
and the handlers that sit at its end.

# Middleware Components

## Trace context (trace.go)

TraceMiddleware opens the request scope:
  - Generates a UUID request id and stores it in the context
  - Adds {method, uri, version, request_id, client_ip} to the context as the
    "request" log group; every *Context log call downstream carries it
  - Tags the OpenTelemetry server span opened by otelhttp

## Request ID (requestid.go)

RequestIDMiddleware reuses the id from the context (accessible via
GetRequestID) and writes it to the x-request-id response header before
delegating, so every response carries it.

## Latency (latency.go)

LatencyMiddleware emits one "request completed" record per request
(method, path, status_code, elapsed_ms), even when the handler panics, and
records duration metrics on the global meter.

# Middleware Chain Order

The order is fixed in New, outermost first:
 1. otelhttp (server span, W3C context extraction)
 2. Recoverer (turns panics into 500)
 3. TraceMiddleware
 4. RequestIDMiddleware
 5. LatencyMiddleware
 6. Compress (when performance.enable_compression is set)

# Example Usage

	state := app.New(store, cache, cfg, logger)
	srv := server.New(state)

	go srv.Start()
	...
	srv.Shutdown(ctx)
*/
package server
