// Package api provides the HTTP API server and handlers for the Shelfmark application.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfmark/shelfmark-server/internal/store"
)

// defaultUserID identifies the single shelf owner. The ledger schema carries
// a user ID on every event so multi-user support stays a storage-compatible
// change, but the API currently serves one user.
const defaultUserID = "user-default"

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	services         *Services
	router           *chi.Mux
	api              huma.API
	logger           *slog.Logger
	writeRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, logger *slog.Logger) *Server {
	s := &Server{
		store:            store,
		services:         services,
		router:           chi.NewRouter(),
		logger:           logger,
		writeRateLimiter: NewRateLimiter(120, time.Minute, 30),
	}

	// Middleware must be installed before humachi registers any routes.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Shelfmark API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	// Register routes.
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerAnalyticsRoutes()
	s.registerSettingsRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.writeRateLimiter, s.logger))
}
