package health

import (
	"context"
	"time"
)

// Status represents the health status of a dependency.
type Status int

const (
	// StatusHealthy indicates the dependency answered correctly.
	StatusHealthy Status = iota
	// StatusUnhealthy indicates the dependency failed, timed out or answered wrongly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText renders the status as its string form in JSON bodies.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result contains the outcome of a health check.
type Result struct {
	Status Status

	// Message provides additional context about the status.
	Message string

	// Error is the cause of an unhealthy result.
	Error error

	// Duration is how long the check took.
	Duration time.Duration

	// Timestamp is when the check was started.
	Timestamp time.Time
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// Checker is the interface for dependency probes.
type Checker interface {
	// Name is the key under which the result is reported, e.g. "database".
	Name() string

	// Kind describes the backing technology, e.g. "postgresql" or "memory".
	Kind() string

	// Check performs the probe. It must honor ctx cancellation and must not
	// share mutable state with other checkers.
	Check(ctx context.Context) Result
}
