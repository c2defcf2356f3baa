package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/fitroute/internal/domain"
)

// createRouteRequest is the POST /routes body: a payload plus the creation
// time the client stamped when it sent the request.
type createRouteRequest struct {
	Name      string              `json:"name"`
	Points    []domain.RoutePoint `json:"points"`
	PhotoURI  *string             `json:"photoUri,omitempty"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
}

// ListRoutes handles GET /routes. The body is a bare JSON array, newest first.
func (s *Server) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := s.routes.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]domain.Route, len(routes))
	for i, rt := range routes {
		out[i] = toResponse(rt)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateRoute handles POST /routes.
func (s *Server) CreateRoute(w http.ResponseWriter, r *http.Request) {
	var body createRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDecodeError(w, err)
		return
	}

	route := domain.Route{Name: body.Name, Points: body.Points, PhotoURI: body.PhotoURI}
	if body.CreatedAt != nil {
		route.CreatedAt = body.CreatedAt.UTC()
	}

	created, err := s.routes.Create(r.Context(), route)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(created))
}

// GetRoute handles GET /routes/{id}.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	route, err := s.routes.GetByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(route))
}

// UpdateRoute handles PUT /routes/{id}: full replacement of name, points and
// photo. created_at is left untouched.
func (s *Server) UpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body domain.RoutePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := s.routes.Update(r.Context(), id, body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

// DeleteRoute handles DELETE /routes/{id}. Success is 204 with no body.
func (s *Server) DeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.routes.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID binds the {id} path parameter the same way generated oapi-codegen
// servers do, including percent-decoding.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid route id")
		return "", false
	}
	return id, true
}

// toResponse strips device-only state before a route goes on the wire and
// guarantees points encode as [] rather than null.
func toResponse(rt domain.Route) domain.Route {
	rt.Unsynced = false
	if rt.Points == nil {
		rt.Points = []domain.RoutePoint{}
	}
	return rt
}
