package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds each probe when NewAggregator is given zero.
const DefaultTimeout = 5 * time.Second

// ServiceVerdict is one dependency's entry in a Verdict.
type ServiceVerdict struct {
	Status Status
	Type   string
	Result Result
}

// Verdict is the reduced outcome of one aggregation.
type Verdict struct {
	// Status is healthy iff every service is healthy.
	Status Status

	Services map[string]ServiceVerdict

	// Order lists service names in probe order.
	Order []string

	// ResponseTime is the wall-clock span of the whole aggregation.
	ResponseTime time.Duration
}

// Aggregator probes a fixed, ordered list of checkers.
//
// The list is set at construction and never changes, so Run needs no lock
// and can be called by any number of concurrent requests.
type Aggregator struct {
	logger   *slog.Logger
	timeout  time.Duration
	checkers []Checker
}

// NewAggregator creates an aggregator that runs checkers in the given order,
// each bounded by timeout.
func NewAggregator(logger *slog.Logger, timeout time.Duration, checkers ...Checker) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		logger:   logger,
		timeout:  timeout,
		checkers: append([]Checker(nil), checkers...),
	}
}

// CheckerNames returns the names of the registered checkers in probe order.
func (a *Aggregator) CheckerNames() []string {
	names := make([]string, len(a.checkers))
	for i, c := range a.checkers {
		names[i] = c.Name()
	}
	return names
}

// Run probes every checker exactly once, sequentially, then reduces the
// results. Failures are logged and folded into the verdict; Run itself never
// fails.
func (a *Aggregator) Run(ctx context.Context) Verdict {
	start := time.Now()

	verdict := Verdict{
		Services: make(map[string]ServiceVerdict, len(a.checkers)),
		Order:    make([]string, 0, len(a.checkers)),
	}

	for _, checker := range a.checkers {
		result := a.runCheck(ctx, checker)
		if result.Status != StatusHealthy {
			attrs := []any{
				slog.String("check", checker.Name()),
				slog.String("type", checker.Kind()),
				slog.String("message", result.Message),
				slog.Duration("duration", result.Duration),
			}
			if result.Error != nil {
				attrs = append(attrs, slog.String("error", result.Error.Error()))
			}
			a.logger.ErrorContext(ctx, "health check failed", attrs...)
		}

		verdict.Order = append(verdict.Order, checker.Name())
		verdict.Services[checker.Name()] = ServiceVerdict{
			Status: result.Status,
			Type:   checker.Kind(),
			Result: result,
		}
	}

	verdict.Status = Reduce(verdict.Services)
	verdict.ResponseTime = time.Since(start)
	return verdict
}

// Reduce returns healthy iff every service is healthy. An empty set is healthy.
func Reduce(services map[string]ServiceVerdict) Status {
	for _, s := range services {
		if s.Status != StatusHealthy {
			return StatusUnhealthy
		}
	}
	return StatusHealthy
}

// runCheck runs one checker under its own deadline. A checker that ignores
// ctx is abandoned at the deadline and reported unhealthy; a panicking
// checker is reported unhealthy instead of unwinding the request.
func (a *Aggregator) runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resultCh := make(chan Result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resultCh <- Unhealthy("check panicked", fmt.Errorf("%w: %v", ErrCheckPanicked, rec))
			}
		}()
		resultCh <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		result = Unhealthy("check timed out", fmt.Errorf("%w: %w", ErrCheckTimeout, ctx.Err()))
	}

	result.Duration = time.Since(start)
	result.Timestamp = start
	return result
}
