// Package service contains the business logic behind the /routes API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/fitroute/internal/domain"
	"github.com/pkordes/fitroute/internal/repo"
)

// RouteService implements business logic for Route operations.
type RouteService struct {
	repo repo.RouteRepo
	now  func() time.Time
}

// NewRouteService constructs a RouteService backed by the provided RouteRepo.
func NewRouteService(r repo.RouteRepo) *RouteService {
	return &RouteService{repo: r, now: time.Now}
}

// Create validates and persists a new route. The id always comes from the
// database; a client-supplied CreatedAt is kept, otherwise it is set to now.
func (s *RouteService) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	if err := domain.ValidatePayload(route.Payload()); err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Create: %w", err)
	}

	route.ID = ""
	route.Unsynced = false
	route.Name = strings.TrimSpace(route.Name)
	if route.CreatedAt.IsZero() {
		route.CreatedAt = s.now().UTC()
	}

	result, err := s.repo.Create(ctx, route)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single route. Ids that are not UUIDs (including
// device-local ids) can never exist server-side and yield domain.ErrNotFound.
func (s *RouteService) GetByID(ctx context.Context, id string) (domain.Route, error) {
	uid, err := parseID(id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.GetByID: %w", err)
	}
	result, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.GetByID: %w", err)
	}
	return result, nil
}

// List returns all routes newest first.
// Always returns a non-nil slice so the JSON encoding is [] rather than null.
func (s *RouteService) List(ctx context.Context) ([]domain.Route, error) {
	routes, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RouteService.List: %w", err)
	}
	if routes == nil {
		return []domain.Route{}, nil
	}
	return routes, nil
}

// Update replaces name, points and photo of an existing route.
// CreatedAt is never modified.
func (s *RouteService) Update(ctx context.Context, id string, p domain.RoutePayload) (domain.Route, error) {
	if err := domain.ValidatePayload(p); err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Update: %w", err)
	}
	uid, err := parseID(id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Update: %w", err)
	}

	result, err := s.repo.Update(ctx, uid, p.Normalize())
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.RouteService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a route. Returns domain.ErrNotFound if it does not exist.
func (s *RouteService) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return fmt.Errorf("service.RouteService.Delete: %w", err)
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("service.RouteService.Delete: %w", err)
	}
	return nil
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: route %q", domain.ErrNotFound, id)
	}
	return uid, nil
}
