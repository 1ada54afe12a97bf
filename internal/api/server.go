// Package api provides the HTTP API server and handlers for the GameVault server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gamevaultapp/gamevault-server/internal/scanner"
	"github.com/gamevaultapp/gamevault-server/internal/search"
	"github.com/gamevaultapp/gamevault-server/internal/service"
	"github.com/gamevaultapp/gamevault-server/internal/store"
	"github.com/gamevaultapp/gamevault-server/internal/validation"
)

// Options holds the dependencies for the API server. Index and Scanner may
// be nil; the matching endpoints then report the feature as unavailable.
type Options struct {
	Store    *store.Store
	Metadata *service.MetadataService
	Index    *search.GameIndex
	Scanner  *scanner.Scanner
	Logger   *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	metadata *service.MetadataService
	index    *search.GameIndex
	scanner  *scanner.Scanner
	validate *validation.Validator
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(opts Options) *Server {
	s := &Server{
		store:    opts.Store,
		metadata: opts.Metadata,
		index:    opts.Index,
		scanner:  opts.Scanner,
		validate: validation.New(),
		router:   chi.NewRouter(),
		logger:   opts.Logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("GameVault API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)

	RegisterErrorHandler()
	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// registerRoutes registers all huma operations.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerGameRoutes()
	s.registerMetadataRoutes()
	s.registerSearchRoutes()
	s.registerScanRoutes()
}
