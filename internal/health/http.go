package health

import (
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/yourkin666/server-go/internal/buildinfo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LivenessResponse is the body of the shallow check.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DetailedResponse is the body of the deep check.
type DetailedResponse struct {
	Status         string                     `json:"status"`
	Timestamp      string                     `json:"timestamp"`
	Version        string                     `json:"version"`
	ResponseTimeMs int64                      `json:"response_time_ms"`
	Services       map[string]ServiceResponse `json:"services"`
	System         SystemResponse             `json:"system"`
}

// ServiceResponse is one dependency in DetailedResponse.
type ServiceResponse struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// SystemResponse carries process telemetry. MemoryUsage is a placeholder
// and is always zero.
type SystemResponse struct {
	Uptime      uint64 `json:"uptime"`
	MemoryUsage uint64 `json:"memory_usage"`
}

// LivenessHandler answers GET /health. It never touches a dependency.
func LivenessHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, LivenessResponse{
			Status:    "ok",
			Timestamp: now(),
			Version:   version,
		})
	}
}

// DetailedHandler answers GET /health/detailed with 200 when every
// dependency is healthy and 503 otherwise.
func DetailedHandler(agg *Aggregator, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verdict := agg.Run(r.Context())

		response := DetailedResponse{
			Status:         verdict.Status.String(),
			Timestamp:      now(),
			Version:        version,
			ResponseTimeMs: verdict.ResponseTime.Milliseconds(),
			Services:       make(map[string]ServiceResponse, len(verdict.Services)),
			System: SystemResponse{
				Uptime:      buildinfo.UptimeSeconds(),
				MemoryUsage: 0,
			},
		}
		for name, service := range verdict.Services {
			response.Services[name] = ServiceResponse{
				Status: service.Status.String(),
				Type:   service.Type,
			}
		}

		status := http.StatusOK
		if verdict.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
