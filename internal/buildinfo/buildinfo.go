// Package buildinfo carries the service version and the process start marker
// used for uptime reporting.
package buildinfo

import (
	"sync"
	"time"
)

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/yourkin666/server-go/internal/buildinfo.Version=1.2.3"
var Version = "0.1.0"

// Name is the service name reported by informational endpoints.
const Name = "server-go"

// startedAt is set on first access, exactly once, even under concurrent callers.
var startedAt = sync.OnceValue(time.Now)

// MarkStart pins the start marker. Calling it early in main makes uptime count
// from process start rather than from the first health request.
func MarkStart() time.Time {
	return startedAt()
}

// Uptime returns the monotonic time elapsed since the start marker.
func Uptime() time.Duration {
	return time.Since(startedAt())
}

// UptimeSeconds returns Uptime truncated to whole seconds.
func UptimeSeconds() uint64 {
	return uint64(Uptime() / time.Second)
}
