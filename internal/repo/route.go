// Package repo contains all database access logic for the FitRoute API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/fitroute/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, pgx.Tx
// and pgxmock pools. Integration tests pass a transaction that is rolled back
// after each test; unit tests pass a pgxmock pool.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RouteRepo defines the persistence operations for Routes.
type RouteRepo interface {
	// Create inserts a new route and returns the persisted record with its
	// DB-generated id. A zero CreatedAt is replaced by now() in the database.
	Create(ctx context.Context, route domain.Route) (domain.Route, error)

	// GetByID retrieves a single route. Returns domain.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error)

	// List returns all routes ordered by created_at descending.
	List(ctx context.Context) ([]domain.Route, error)

	// Update replaces name, points and photo of an existing route. created_at
	// is never touched. Returns domain.ErrNotFound if absent.
	Update(ctx context.Context, id uuid.UUID, p domain.RoutePayload) (domain.Route, error)

	// Delete removes a route by ID. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgRouteRepo is the Postgres implementation of RouteRepo.
type pgRouteRepo struct {
	db db
}

// NewRouteRepo constructs a RouteRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRouteRepo(db db) RouteRepo {
	return &pgRouteRepo{db: db}
}

const routeColumns = `id::text, name, points, photo_uri, created_at`

func (r *pgRouteRepo) Create(ctx context.Context, route domain.Route) (domain.Route, error) {
	const q = `
		INSERT INTO routes (name, points, photo_uri, created_at)
		VALUES (@name, @points, @photo_uri, COALESCE(@created_at, now()))
		RETURNING ` + routeColumns

	points, err := encodePoints(route.Points)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", err)
	}

	args := pgx.NamedArgs{
		"name":       route.Name,
		"points":     points,
		"photo_uri":  route.PhotoURI, // nil becomes NULL
		"created_at": nullableTime(route),
	}

	result, err := scanRoute(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Route, error) {
	const q = `SELECT ` + routeColumns + ` FROM routes WHERE id = @id`

	result, err := scanRoute(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns all routes newest first. Ties on created_at fall back to id
// so the order is stable between calls.
func (r *pgRouteRepo) List(ctx context.Context) ([]domain.Route, error) {
	const q = `SELECT ` + routeColumns + ` FROM routes ORDER BY created_at DESC, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: %w", err)
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RouteRepo.List: scan: %w", err)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RouteRepo.List: rows: %w", err)
	}

	return routes, nil
}

func (r *pgRouteRepo) Update(ctx context.Context, id uuid.UUID, p domain.RoutePayload) (domain.Route, error) {
	const q = `
		UPDATE routes
		SET name       = @name,
		    points     = @points,
		    photo_uri  = @photo_uri,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + routeColumns

	points, err := encodePoints(p.Points)
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Update: %w", err)
	}

	args := pgx.NamedArgs{
		"id":        id,
		"name":      p.Name,
		"points":    points,
		"photo_uri": p.PhotoURI,
	}

	result, err := scanRoute(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Route{}, fmt.Errorf("repo.RouteRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgRouteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM routes WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RouteRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRoute maps a single row into a domain.Route. Points are stored as a
// JSONB array and decoded here rather than by the driver so the column can be
// read back as raw bytes in tests.
func scanRoute(s scanner) (domain.Route, error) {
	var (
		rt     domain.Route
		points []byte
	)

	err := s.Scan(&rt.ID, &rt.Name, &points, &rt.PhotoURI, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, err
	}

	rt.Points = []domain.RoutePoint{}
	if len(points) > 0 {
		if err := json.Unmarshal(points, &rt.Points); err != nil {
			return domain.Route{}, fmt.Errorf("decode points: %w", err)
		}
	}
	rt.CreatedAt = rt.CreatedAt.UTC()

	return rt, nil
}

func encodePoints(points []domain.RoutePoint) ([]byte, error) {
	if points == nil {
		points = []domain.RoutePoint{}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}
	return b, nil
}

// nullableTime returns nil for a zero CreatedAt so COALESCE falls back to now().
func nullableTime(route domain.Route) any {
	if route.CreatedAt.IsZero() {
		return nil
	}
	return route.CreatedAt
}
