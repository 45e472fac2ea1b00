package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkruglov/fileshare/internal/logging"
	"github.com/dkruglov/fileshare/internal/server/config"
)

// Server wraps the HTTP listener with routing and graceful shutdown.
type Server struct {
	httpServer *http.Server
	log        logging.Logger
}

// NewServer wires routes and middleware. Upload sits behind the bearer-token
// gate; signup, login, download and the probes are open.
func NewServer(cfg *config.Config, log logging.Logger, h *Handler) *Server {
	router := chi.NewRouter()

	router.Use(RequestLogger(log))
	router.Use(Metrics())

	router.Post("/api/signup", h.Signup)
	router.Post("/api/login", h.Login)

	router.Group(func(r chi.Router) {
		r.Use(Authenticator([]byte(cfg.SecretKey), log))
		r.Post("/api/upload", h.Upload)
	})

	// Wildcard: link tokens are escaped bcrypt digests and may span what
	// looks like several path segments once unescaped.
	router.Get("/api/download/*", h.Download)

	router.Get("/health/live", h.HealthLive)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.EndpointAddr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
