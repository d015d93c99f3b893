// Package web provides the HTTP API for the sales data service.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/klauspost/compress/gzhttp"

	"github.com/JonMunkholm/salesview/internal/config"
	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/web/middleware"
)

// Server is the HTTP server for the sales API.
type Server struct {
	cfg     *config.Config
	service *core.Service
	metrics *Metrics
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		metrics: NewMetrics(),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     s.router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays 0: exports stream and uploads are bounded by
		// their route timeouts.
		IdleTimeout: cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.metrics.Middleware)
	s.router.Use(compress)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/api/sales", func(r chi.Router) {
		// Reads
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			if s.cfg.Rate.Enabled {
				r.Use(middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
			}

			r.Get("/", s.handleQuery)
			r.Get("/filters", s.handleFilterOptions)
			r.Get("/dataset", s.handleDataset)
			r.Get("/export", s.handleExport)
			r.Get("/upload-status", s.handleUploadQueueStatus)
		})

		// Uploads replace the dataset, so they carry auth, a stricter
		// rate limit and their own timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))
			r.Use(chimw.Timeout(s.cfg.Upload.Timeout))
			if s.cfg.Rate.Enabled {
				r.Use(middleware.NewRateLimiter(s.cfg.Rate.UploadLimit).Handler)
			}

			r.Post("/upload", s.handleUploadJSON)
			r.Post("/upload-csv", s.handleUploadCSV)
		})
	})
}

// Start begins listening for HTTP requests on the configured address.
// It returns http.ErrServerClosed after Shutdown, including when Shutdown
// ran first.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "Server is running",
	})
}

// compress gzips responses for clients that accept it. Small bodies are
// left alone by gzhttp's default minimum size.
func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
