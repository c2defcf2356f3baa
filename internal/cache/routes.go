package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pkordes/fitroute/internal/domain"
)

// RoutesKey is the single key the whole route collection is stored under.
const RoutesKey = "fitroute.routes"

// RouteCache serializes the route collection into a Store.
type RouteCache struct {
	store  Store
	logger *slog.Logger
}

// NewRouteCache returns a RouteCache writing to store.
func NewRouteCache(store Store, logger *slog.Logger) *RouteCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteCache{store: store, logger: logger.With("component", "route_cache")}
}

// Load returns the cached collection. A missing key or malformed JSON yields
// an empty collection and no error; a failing store yields an error wrapping
// domain.ErrStorage.
func (c *RouteCache) Load(ctx context.Context) ([]domain.Route, error) {
	raw, ok, err := c.store.Get(ctx, RoutesKey)
	if err != nil {
		return nil, fmt.Errorf("cache.RouteCache.Load: %w: %w", domain.ErrStorage, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var routes []domain.Route
	if err := json.Unmarshal([]byte(raw), &routes); err != nil {
		c.logger.WarnContext(ctx, "discarding malformed route cache", "error", err, "size_bytes", len(raw))
		return nil, nil
	}
	return routes, nil
}

// Save replaces the cached collection with routes.
func (c *RouteCache) Save(ctx context.Context, routes []domain.Route) error {
	if routes == nil {
		routes = []domain.Route{}
	}
	b, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("cache.RouteCache.Save: %w: %w", domain.ErrStorage, err)
	}
	if err := c.store.Set(ctx, RoutesKey, string(b)); err != nil {
		return fmt.Errorf("cache.RouteCache.Save: %w: %w", domain.ErrStorage, err)
	}
	return nil
}
