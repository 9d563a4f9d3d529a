package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	_ "modernc.org/sqlite"

	"github.com/yourkin666/server-go/internal/config"
)

// SQLStore backs the postgres (lib/pq) and sqlite (modernc) drivers through
// database/sql, whose *sql.DB is itself a concurrency-safe pool.
type SQLStore struct {
	db    *sqlx.DB
	cfg   config.DatabaseConfig
	kind  string
	query string
}

var _ Store = (*SQLStore)(nil)

// NewSQLX opens a lib/pq pool sized by cfg.
func NewSQLX(cfg config.DatabaseConfig) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		db.SetMaxIdleConns(cfg.MinConnections)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return newSQLStore(db, cfg, "postgresql", "postgres")
}

// NewSQLite opens a modernc sqlite database; cfg.URL is the DSN (a path or
// "file:name?mode=memory&cache=shared").
func NewSQLite(cfg config.DatabaseConfig) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	return newSQLStore(db, cfg, "sqlite", "sqlite3")
}

func newSQLStore(db *sqlx.DB, cfg config.DatabaseConfig, kind, dialect string) (*SQLStore, error) {
	query, err := probeQuery(dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, cfg: cfg, kind: kind, query: query}, nil
}

func (s *SQLStore) Probe(ctx context.Context) error {
	ctx, cancel := withQueryTimeout(ctx, s.cfg)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, s.query); err != nil {
		return fmt.Errorf("probe %s: %w", s.kind, err)
	}
	return nil
}

func (s *SQLStore) Kind() string { return s.kind }

func (s *SQLStore) Close() error {
	return s.db.Close()
}
