// Package handler implements the HTTP handlers for the FitRoute /routes API.
// All handlers are methods on Server; Handler mounts them on a chi router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/fitroute/internal/domain"
)

// RouteServicer defines the business operations the route handlers depend on.
// It is declared here, in the consumer package, so handler tests can inject a
// mock without touching the service or database layers.
type RouteServicer interface {
	Create(ctx context.Context, route domain.Route) (domain.Route, error)
	GetByID(ctx context.Context, id string) (domain.Route, error)
	List(ctx context.Context) ([]domain.Route, error)
	Update(ctx context.Context, id string, p domain.RoutePayload) (domain.Route, error)
	Delete(ctx context.Context, id string) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	routes RouteServicer
	log    *slog.Logger
}

// NewServer constructs the Server. A nil logger falls back to slog.Default.
func NewServer(routes RouteServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{routes: routes, log: log.With("component", "handler")}
}

// Handler returns a chi router serving every endpoint of s.
func Handler(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Route("/routes", func(r chi.Router) {
		r.Get("/", s.ListRoutes)
		r.Post("/", s.CreateRoute)
		r.Get("/{id}", s.GetRoute)
		r.Put("/{id}", s.UpdateRoute)
		r.Delete("/{id}", s.DeleteRoute)
	})
	return r
}
