package server

import (
	"net/http"
	"runtime"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/yourkin666/server-go/internal/buildinfo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var endpoints = []string{
	"/health",
	"/health/detailed",
	"/api/info",
	"/api/performance",
}

func infoHandler(version string) http.HandlerFunc {
	body := map[string]any{
		"name":        buildinfo.Name,
		"version":     version,
		"description": "HTTP service skeleton with request tracing and dependency health checks",
		"features": map[string]string{
			"router":        "chi",
			"logging":       "log/slog",
			"tracing":       "opentelemetry",
			"configuration": "koanf",
			"serialization": "json-iterator",
		},
		"endpoints": endpoints,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	}
}

func performanceHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var sum uint64
	for i := uint64(0); i < 1000; i++ {
		sum += i
	}

	elapsed := time.Since(start)

	writeJSON(w, http.StatusOK, map[string]any{
		"performance": map[string]any{
			"computation_time_ms": elapsed.Milliseconds(),
			"uptime_seconds":      buildinfo.UptimeSeconds(),
			"test_computation":    sum,
		},
		"system": map[string]any{
			"go_version": runtime.Version(),
			"goos":       runtime.GOOS,
			"goarch":     runtime.GOARCH,
			"goroutines": runtime.NumGoroutine(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
