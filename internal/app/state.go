// Package app holds the long-lived resources shared by every request.
package app

import (
	"errors"
	"log/slog"

	"github.com/yourkin666/server-go/internal/cache"
	"github.com/yourkin666/server-go/internal/config"
	"github.com/yourkin666/server-go/internal/store"
)

// State is built once at startup and never modified afterwards. It carries
// no lock: the store pool and the cache synchronize themselves, and the
// config snapshot is read-only. Share it by pointer.
type State struct {
	store  store.Store
	cache  cache.Cache
	config *config.Config
	logger *slog.Logger
}

// New assembles the shared state.
func New(s store.Store, c cache.Cache, cfg *config.Config, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		store:  s,
		cache:  c,
		config: cfg,
		logger: logger,
	}
}

func (s *State) Store() store.Store { return s.store }

func (s *State) Cache() cache.Cache { return s.cache }

// Config returns the configuration snapshot. Callers must treat it as
// read-only.
func (s *State) Config() *config.Config { return s.config }

func (s *State) Logger() *slog.Logger { return s.logger }

// Close releases the store and the cache. Call it once, after the HTTP server
// has drained.
func (s *State) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
