// Package api is the admin REST surface: CRUD over clusters,
// routes, listeners, and secrets, plus the OpenAPI import and
// bootstrap-download endpoints. Every handler follows the same shape —
// decode, validate, call the repository, translate the result to an HTTP
// response — generalized from one hardcoded resource type to four, routed
// with go-chi/chi instead of a bare http.ServeMux so path params and
// per-route middleware scale past a handful of endpoints.
package api

import (
	"log/slog"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/flowplane/flowplane/internal/config"
	"github.com/flowplane/flowplane/internal/model"
	"github.com/flowplane/flowplane/internal/repository"
)

// Server holds every dependency the admin API's handlers need.
type Server struct {
	repo     *repository.Repository
	cfg      *config.Config
	log      *slog.Logger
	validate *validator.Validate
	token    string

	importMu      sync.Mutex
	importRecords map[string]model.ImportRecord
}

// NewServer wires a Server. token is the bearer token every request must
// present. Authentication is assumed already validated ahead of this
// boundary; this is the standalone binary's minimal stand-in for that
// boundary, not a production authentication scheme.
func NewServer(repo *repository.Repository, cfg *config.Config, log *slog.Logger, token string) *Server {
	return &Server{
		repo:          repo,
		cfg:           cfg,
		log:           log,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		token:         token,
		importRecords: make(map[string]model.ImportRecord),
	}
}

// Router builds the chi mux for the admin API.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requireBearerToken)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/clusters", func(r chi.Router) {
			r.Get("/", s.listClusters)
			r.Post("/", s.createCluster)
			r.Get("/{name}", s.getCluster)
			r.Put("/{name}", s.updateCluster)
			r.Delete("/{name}", s.deleteCluster)
		})
		r.Route("/routes", func(r chi.Router) {
			r.Get("/", s.listRoutes)
			r.Post("/", s.createRoute)
			r.Get("/{name}", s.getRoute)
			r.Put("/{name}", s.updateRoute)
			r.Delete("/{name}", s.deleteRoute)
		})
		r.Route("/listeners", func(r chi.Router) {
			r.Get("/", s.listListeners)
			r.Post("/", s.createListener)
			r.Get("/{name}", s.getListener)
			r.Put("/{name}", s.updateListener)
			r.Delete("/{name}", s.deleteListener)
		})
		r.Route("/secrets", func(r chi.Router) {
			r.Get("/", s.listSecrets)
			r.Post("/", s.createSecret)
			r.Get("/{name}", s.getSecret)
			r.Put("/{name}", s.updateSecret)
			r.Delete("/{name}", s.deleteSecret)
		})
		r.Get("/filters", s.listFilterKinds)

		r.Route("/api-definitions", func(r chi.Router) {
			r.Post("/from-openapi", s.importOpenAPI)
			r.Get("/{id}/bootstrap", s.downloadBootstrap)
		})
	})
	return r
}
