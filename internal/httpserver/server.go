package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"authapi/backend/internal/config"
	authusecase "authapi/backend/internal/usecase/auth"

	"github.com/prometheus/client_golang/prometheus"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         *http.ServeMux
	authService    *authusecase.Service
	gatherer       prometheus.Gatherer
	logger         *slog.Logger
	allowedOrigins []string
	addr           string
}

// NewServer constructs a new Server with configured dependencies. A nil
// gatherer disables the /metrics route.
func NewServer(cfg config.Config, authService *authusecase.Service, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	addr := cfg.Addr()

	handler := withRequestID(withLogging(withRecover(withCORS(mux, cfg.AllowedOrigins), logger), logger))

	srv := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		router:         mux,
		authService:    authService,
		gatherer:       gatherer,
		logger:         logger,
		allowedOrigins: cfg.AllowedOrigins,
		addr:           addr,
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
