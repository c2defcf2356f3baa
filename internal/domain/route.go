// Package domain contains the core data types for the FitRoute application.
// It is imported by every other internal package (repo, service, handler,
// routeclient, cache, reconcile).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalIDPrefix marks ids generated on the device when the remote service
// could not be reached. Server ids are UUIDs and never carry it.
const LocalIDPrefix = "local-"

// MinPoints is the smallest number of GPS points a route may have.
const MinPoints = 2

// RoutePoint is a single GPS fix. Order within a route is the polyline order.
type RoutePoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Route is one recorded activity: a named sequence of points plus an optional photo.
// CreatedAt is assigned once and never changes afterwards.
type Route struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Points    []RoutePoint `json:"points"`
	PhotoURI  *string      `json:"photoUri,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`

	// Unsynced is set when the latest change to this route only exists
	// locally (created or updated while the service was unreachable).
	Unsynced bool `json:"unsynced,omitempty"`
}

// Payload returns the caller-editable subset of r.
func (r Route) Payload() RoutePayload {
	return RoutePayload{
		Name:     r.Name,
		Points:   clonePoints(r.Points),
		PhotoURI: r.PhotoURI,
	}
}

// Clone returns a deep copy of r so snapshots can be handed out safely.
func (r Route) Clone() Route {
	out := r
	out.Points = clonePoints(r.Points)
	if r.PhotoURI != nil {
		p := *r.PhotoURI
		out.PhotoURI = &p
	}
	return out
}

// RoutePayload is what a caller supplies on create and update.
// ID and CreatedAt are never part of it.
type RoutePayload struct {
	Name     string       `json:"name"`
	Points   []RoutePoint `json:"points"`
	PhotoURI *string      `json:"photoUri,omitempty"`
}

// Normalize returns a copy of p with surrounding whitespace removed from the name.
func (p RoutePayload) Normalize() RoutePayload {
	p.Name = strings.TrimSpace(p.Name)
	p.Points = clonePoints(p.Points)
	return p
}

// ValidationError describes a payload that failed validation. It wraps
// ErrValidation so callers can match it with errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidatePayload enforces the rules shared by create and update:
//   - name must be non-empty after trimming whitespace
//   - at least MinPoints points are required
func ValidatePayload(p RoutePayload) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Message: "name required"}
	}
	if len(p.Points) < MinPoints {
		return &ValidationError{Message: fmt.Sprintf("at least %d points required", MinPoints)}
	}
	return nil
}

// NewLocalID returns a device-local id of the form local-<unix-millis>-<suffix>.
// Uniqueness is probabilistic: the suffix is taken from a random UUID.
func NewLocalID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d-%s", LocalIDPrefix, now.UnixMilli(), suffix)
}

// IsLocalID reports whether id was generated on the device.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

func clonePoints(points []RoutePoint) []RoutePoint {
	if points == nil {
		return nil
	}
	out := make([]RoutePoint, len(points))
	copy(out, points)
	return out
}
