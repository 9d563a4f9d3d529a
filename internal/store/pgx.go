package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourkin666/server-go/internal/config"
)

// PGXStore is the default postgres backend, a pgx connection pool.
type PGXStore struct {
	pool  *pgxpool.Pool
	cfg   config.DatabaseConfig
	query string
}

var _ Store = (*PGXStore)(nil)

// NewPGX parses cfg.URL and builds a pool with the configured bounds.
func NewPGX(ctx context.Context, cfg config.DatabaseConfig) (*PGXStore, error) {
	poolConfig, err := pgxConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	query, err := probeQuery("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PGXStore{pool: pool, cfg: cfg, query: query}, nil
}

func pgxConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = int32(cfg.MinConnections)
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	if timeout := cfg.ConnectTimeoutDuration(); timeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = timeout
	}

	return poolConfig, nil
}

func (s *PGXStore) Probe(ctx context.Context) error {
	ctx, cancel := withQueryTimeout(ctx, s.cfg)
	defer cancel()

	if _, err := s.pool.Exec(ctx, s.query); err != nil {
		return fmt.Errorf("probe postgres: %w", err)
	}
	return nil
}

func (s *PGXStore) Kind() string { return "postgresql" }

func (s *PGXStore) Close() error {
	s.pool.Close()
	return nil
}
