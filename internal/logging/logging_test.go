package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/yourkin666/server-go/internal/config"
)

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace": LevelTrace,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	logger.Info("hello", slog.String("k", "v"))
	m := decode(t, strings.TrimSpace(buf.String()))
	if m["msg"] != "hello" || m["k"] != "v" {
		t.Errorf("unexpected record %v", m)
	}

	buf.Reset()
	logger = New(config.LoggingConfig{Level: "info", Format: "pretty"}, &buf)
	logger.Info("hello", slog.String("k", "v"))
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Error("warn record missing")
	}
}

func TestContextHandler_AddsScope(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	ctx := WithAttrs(context.Background(), slog.String("request_id", "abc"))
	ctx = WithAttrs(ctx, slog.String("method", "GET"))
	logger.InfoContext(ctx, "inside", slog.Int("n", 1))

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["request_id"] != "abc" || m["method"] != "GET" {
		t.Errorf("scope missing from record: %v", m)
	}
	if _, ok := m["trace_id"]; ok {
		t.Error("trace_id present without an active span")
	}
}

func TestWithAttrs_DoesNotLeakAcrossContexts(t *testing.T) {
	root := WithAttrs(context.Background(), slog.String("a", "1"))
	left := WithAttrs(root, slog.String("b", "2"))
	right := WithAttrs(root, slog.String("c", "3"))

	if len(Attrs(root)) != 1 {
		t.Errorf("root scope = %v", Attrs(root))
	}
	if got := Attrs(left); len(got) != 2 || got[1].Key != "b" {
		t.Errorf("left scope = %v", got)
	}
	if got := Attrs(right); len(got) != 2 || got[1].Key != "c" {
		t.Errorf("right scope = %v", got)
	}
	if WithAttrs(root) != root {
		t.Error("WithAttrs without attrs should return the same context")
	}
}

func TestContextHandler_ConcurrentScopes(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&lockedWriter{mu: &mu, w: &buf}, nil)))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			ctx := WithAttrs(context.Background(), slog.String("request_id", id))
			logger.InfoContext(ctx, "work", slog.String("expect", id))
		}(string(rune('a' + i)))
	}
	wg.Wait()

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		m := decode(t, line)
		if m["request_id"] != m["expect"] {
			t.Errorf("record carries foreign scope: %v", m)
		}
	}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  *bytes.Buffer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
