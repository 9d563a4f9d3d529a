// Package store opens the persistent store and exposes the one capability the
// service needs from it: a cheap liveness round trip.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration

	"github.com/yourkin666/server-go/internal/config"
)

// ErrUnknownDriver is returned by Open for a driver it does not support.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Store is a handle on a connection pool. Implementations are safe for
// concurrent use without external locking.
type Store interface {
	// Probe runs a trivial round-trip query.
	Probe(ctx context.Context) error

	// Kind names the backing database for health reports.
	Kind() string

	// Close releases the pool.
	Close() error
}

// Driver names accepted in database.driver.
const (
	DriverPGX      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open creates the pool selected by cfg.Driver. Postgres pools are created
// lazily and do not fail when the server is down; the probe reports that.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	driver := strings.ToLower(cfg.Driver)
	logger.Info("creating database pool",
		slog.String("driver", driver),
		slog.Int("max_connections", cfg.MaxConnections),
	)

	var (
		s   Store
		err error
	)
	switch driver {
	case DriverPGX, "":
		s, err = NewPGX(ctx, cfg)
	case DriverPostgres:
		s, err = NewSQLX(cfg)
	case DriverSQLite:
		s, err = NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("database pool created", slog.String("kind", s.Kind()))
	return s, nil
}

// probeQuery renders SELECT 1 for the given goqu dialect.
func probeQuery(dialect string) (string, error) {
	query, _, err := goqu.Dialect(dialect).Select(goqu.L("1")).ToSQL()
	if err != nil {
		return "", fmt.Errorf("build probe query: %w", err)
	}
	return query, nil
}

// withQueryTimeout bounds ctx by the configured query timeout, if any.
func withQueryTimeout(ctx context.Context, cfg config.DatabaseConfig) (context.Context, context.CancelFunc) {
	if timeout := cfg.QueryTimeoutDuration(); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
