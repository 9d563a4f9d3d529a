package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yourkin666/server-go/internal/config"
	"github.com/yourkin666/server-go/internal/logging"
)

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// records decodes every JSON line written so far.
func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func (b *syncBuffer) withMsg(t *testing.T, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, r := range b.records(t) {
		if r["msg"] == msg {
			out = append(out, r)
		}
	}
	return out
}

func newTestLogger() (*slog.Logger, *syncBuffer) {
	sink := &syncBuffer{}
	return logging.New(config.LoggingConfig{Level: "debug", Format: "json"}, sink), sink
}

func checkHeader(t *testing.T, rec *httptest.ResponseRecorder, header, expected string) {
	t.Helper()
	if got := rec.Header().Get(header); got != expected {
		t.Errorf("Header %s = %q, want %q", header, got, expected)
	}
}

func checkRequestID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	id := rec.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("missing x-request-id header")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("x-request-id %q is not a UUID: %v", id, err)
	}
	return id
}

// =============================================================================
// RequestIDMiddleware Tests
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	RequestIDMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	id := checkRequestID(t, rec)
	if seen != id {
		t.Errorf("context id = %q, header id = %q", seen, id)
	}
}

func TestRequestIDMiddleware_ReusesContextID(t *testing.T) {
	existing := uuid.NewString()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetRequestID(r.Context()); got != existing {
			t.Errorf("GetRequestID() = %q, want %q", got, existing)
		}
	})

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithRequestID(req.Context(), existing))
	rec := httptest.NewRecorder()
	RequestIDMiddleware(handler).ServeHTTP(rec, req)

	checkHeader(t, rec, RequestIDHeader, existing)
}

func TestRequestIDMiddleware_Unique(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		id := checkRequestID(t, rec)
		if seen[id] {
			t.Fatalf("duplicate request id %q", id)
		}
		seen[id] = true
	}
}

func TestRequestIDMiddleware_ErrorResponse(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	rec := httptest.NewRecorder()
	RequestIDMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	checkRequestID(t, rec)
}

func TestRequestIDMiddleware_InvalidIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a malformed request id")
		}
	}()

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithRequestID(req.Context(), "not\na-uuid"))
	RequestIDMiddleware(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), req)
}

func TestGetRequestID_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("GetRequestID() = %q, want empty", got)
	}
}

// =============================================================================
// TraceMiddleware Tests
// =============================================================================

func TestTraceMiddleware_Scope(t *testing.T) {
	logger, sink := newTestLogger()

	var contextID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contextID = GetRequestID(r.Context())
		logger.InfoContext(r.Context(), "handler work")
	})

	req := httptest.NewRequest("POST", "/v1/items?x=1", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	TraceMiddleware(logger, false)(handler).ServeHTTP(rec, req)

	records := sink.withMsg(t, "handler work")
	if len(records) != 1 {
		t.Fatalf("got %d handler records, want 1", len(records))
	}
	scope, ok := records[0][RequestScopeGroup].(map[string]any)
	if !ok {
		t.Fatalf("record has no %q group: %v", RequestScopeGroup, records[0])
	}

	want := map[string]string{
		"method":     "POST",
		"uri":        "/v1/items?x=1",
		"version":    "HTTP/1.1",
		"request_id": contextID,
		"client_ip":  "203.0.113.7",
	}
	for k, v := range want {
		if scope[k] != v {
			t.Errorf("scope[%s] = %v, want %v", k, scope[k], v)
		}
	}
	if len(sink.withMsg(t, "request started")) != 0 {
		t.Error("request started logged with request logging disabled")
	}
	if rec.Header().Get(RequestIDHeader) != "" {
		t.Error("trace layer must not touch the response")
	}
}

func TestTraceMiddleware_LogsStart(t *testing.T) {
	logger, sink := newTestLogger()

	TraceMiddleware(logger, true)(http.NotFoundHandler()).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if n := len(sink.withMsg(t, "request started")); n != 1 {
		t.Errorf("got %d request started records, want 1", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "absent", want: "unknown"},
		{name: "single", header: "198.51.100.2", want: "198.51.100.2"},
		{name: "chain", header: " 198.51.100.2 , 10.0.0.1", want: "198.51.100.2"},
		{name: "blank first", header: " , 10.0.0.1", want: "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Forwarded-For", tt.header)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// LatencyMiddleware Tests
// =============================================================================

func TestLatencyMiddleware(t *testing.T) {
	logger, sink := newTestLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	rec := httptest.NewRecorder()
	LatencyMiddleware(logger)(handler).ServeHTTP(rec, httptest.NewRequest("DELETE", "/pots/1", nil))

	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Errorf("response altered: %d %q", rec.Code, rec.Body.String())
	}

	records := sink.withMsg(t, "request completed")
	if len(records) != 1 {
		t.Fatalf("got %d completion records, want 1", len(records))
	}
	r := records[0]
	if r["method"] != "DELETE" || r["path"] != "/pots/1" {
		t.Errorf("unexpected record %v", r)
	}
	if r["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("status_code = %v, want 418", r["status_code"])
	}
	if ms, ok := r["elapsed_ms"].(float64); !ok || ms < 0 {
		t.Errorf("elapsed_ms = %v, want >= 0", r["elapsed_ms"])
	}
}

func TestLatencyMiddleware_DefaultStatus(t *testing.T) {
	logger, sink := newTestLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	LatencyMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	records := sink.withMsg(t, "request completed")
	if len(records) != 1 || records[0]["status_code"] != float64(http.StatusOK) {
		t.Errorf("unexpected records %v", records)
	}
}

func TestLatencyMiddleware_PanicPropagates(t *testing.T) {
	logger, sink := newTestLogger()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	})

	func() {
		defer func() {
			if rec := recover(); rec != "handler exploded" {
				t.Errorf("recovered %v, want the handler panic value", rec)
			}
		}()
		LatencyMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))
	}()

	records := sink.withMsg(t, "request completed")
	if len(records) != 1 {
		t.Fatalf("got %d completion records, want 1", len(records))
	}
	if records[0]["status_code"] != float64(http.StatusInternalServerError) || records[0]["panic"] != true {
		t.Errorf("unexpected record %v", records[0])
	}
}
