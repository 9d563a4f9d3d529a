package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourkin666/server-go/internal/app"
	"github.com/yourkin666/server-go/internal/buildinfo"
	"github.com/yourkin666/server-go/internal/health"
)

type Server struct {
	Router     *chi.Mux
	Addr       string
	state      *app.State
	logger     *slog.Logger
	httpServer *http.Server
}

// New builds the router, installs the middleware chain and registers the
// routes. The state is shared by every request and never modified.
func New(state *app.State) *Server {
	cfg := state.Config()
	logger := state.Logger()
	r := chi.NewRouter()

	// Apply middleware in order, outermost first
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, cfg.Telemetry.ServiceName)
	})
	r.Use(middleware.Recoverer)
	r.Use(TraceMiddleware(logger, cfg.Logging.EnableRequestLogging))
	r.Use(RequestIDMiddleware)
	r.Use(LatencyMiddleware(logger))

	if cfg.Performance.EnableCompression {
		r.Use(middleware.Compress(cfg.Performance.CompressionLevel))
	}

	s := &Server{
		Router: r,
		Addr:   cfg.ServerAddress(),
		state:  state,
		logger: logger,
	}
	s.routes()

	protocols := new(http.Protocols)
	protocols.SetHTTP1(true)
	if cfg.Server.EnableHTTP2 {
		protocols.SetHTTP2(true)
		protocols.SetUnencryptedHTTP2(true)
	}

	timeout := cfg.Server.RequestTimeoutDuration()
	s.httpServer = &http.Server{
		Addr:              s.Addr,
		Handler:           r,
		Protocols:         protocols,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       2 * timeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return s
}

func (s *Server) routes() {
	cfg := s.state.Config()

	agg := health.NewAggregator(s.logger, cfg.Health.TimeoutDuration(),
		health.NewStoreChecker("database", s.state.Store()),
		health.NewCacheChecker("cache", s.state.Cache()),
	)

	s.Router.Get("/health", health.LivenessHandler(buildinfo.Version))
	s.Router.Get("/health/detailed", health.DetailedHandler(agg, buildinfo.Version))
	s.Router.Get("/api/info", infoHandler(buildinfo.Version))
	s.Router.Get("/api/performance", performanceHandler)
}

// Handler returns the full middleware chain and router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting server", slog.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests to
// finish or for ctx to expire. In-flight requests are not cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
