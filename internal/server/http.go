package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/windfall/kidspeech_service/internal/config"
	httphandler "github.com/windfall/kidspeech_service/internal/handler/http"
	"github.com/windfall/kidspeech_service/internal/middleware"
	"github.com/windfall/kidspeech_service/internal/observability"
	"github.com/windfall/kidspeech_service/pkg/response"
)

// Handlers groups the HTTP handlers mounted by the server.
type Handlers struct {
	Health    *httphandler.HealthHandler
	Evaluate  *httphandler.EvaluateHandler
	Sentences *httphandler.SentenceHandler
	Attempts  *httphandler.AttemptHandler
}

// HTTPServer represents the HTTP server.
type HTTPServer struct {
	server *http.Server
	log    zerolog.Logger
}

// NewRouter builds the routing tree. metrics may be nil.
func NewRouter(cfg *config.Config, log zerolog.Logger, h Handlers, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if metrics != nil {
		r.Use(middleware.Logger(log, metrics))
	} else {
		r.Use(middleware.Logger(log, nil))
	}
	r.Use(middleware.Recovery(log))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w)
	})

	if metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Health endpoints
		r.Get("/health", h.Health.Health)
		r.Get("/ready", h.Health.Ready)
		r.Get("/live", h.Health.Live)

		// Evaluation
		r.Post("/evaluate", h.Evaluate.Evaluate)

		// Practice sentences
		r.Get("/sentences", h.Sentences.List)
		r.Get("/sentences/random", h.Sentences.Random)

		// Attempt history
		r.Get("/attempts", h.Attempts.List)
	})

	return r
}

// NewHTTPServer creates a new HTTP server.
func NewHTTPServer(cfg *config.Config, log zerolog.Logger, h Handlers, metrics *observability.Metrics) *HTTPServer {
	server := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      NewRouter(cfg, log, h, metrics),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &HTTPServer{
		server: server,
		log:    log,
	}
}

// Start starts the HTTP server.
func (s *HTTPServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
