package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/fitroute/internal/domain"
)

// Form is the draft being edited. SelectedID is empty while composing a new
// route and holds the target id while editing an existing one.
type Form struct {
	Name       string
	Points     []domain.RoutePoint
	PhotoURI   *string
	SelectedID string
}

// Payload converts the draft into a create/update payload.
func (f Form) Payload() domain.RoutePayload {
	return domain.RoutePayload{Name: f.Name, Points: f.Points, PhotoURI: f.PhotoURI}.Normalize()
}

// Editing reports whether the draft targets an existing route.
func (f Form) Editing() bool { return f.SelectedID != "" }

func (f Form) clone() Form {
	out := f
	if f.Points != nil {
		out.Points = append([]domain.RoutePoint(nil), f.Points...)
	}
	if f.PhotoURI != nil {
		p := *f.PhotoURI
		out.PhotoURI = &p
	}
	return out
}

// Locator supplies the device's current position. Implementations return an
// error wrapping domain.ErrPermissionDenied when the user refuses access.
type Locator interface {
	Locate(ctx context.Context) (domain.RoutePoint, error)
}

// PhotoPicker lets the user choose a photo. ok is false when the user
// cancelled. A refusal of library access is reported as an error wrapping
// domain.ErrPermissionDenied.
type PhotoPicker interface {
	Pick(ctx context.Context) (uri string, ok bool, err error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (domain.RoutePoint, error)

func (f LocatorFunc) Locate(ctx context.Context) (domain.RoutePoint, error) { return f(ctx) }

// PhotoPickerFunc adapts a function to PhotoPicker.
type PhotoPickerFunc func(ctx context.Context) (string, bool, error)

func (f PhotoPickerFunc) Pick(ctx context.Context) (string, bool, error) { return f(ctx) }

// SetName replaces the draft name.
func (s *Store) SetName(name string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.apply(context.Background(), func() bool {
		s.form.Name = name
		return false
	})
}

// AddPoint appends the device's current position to the draft. A failing
// Locator leaves the draft unchanged; a permission refusal also sets
// StatusLocationDenied.
func (s *Store) AddPoint(ctx context.Context, loc Locator) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	pt, err := loc.Locate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.apply(ctx, func() bool {
				s.status = StatusLocationDenied
				return false
			})
		}
		return fmt.Errorf("reconcile.Store.AddPoint: %w", err)
	}
	if pt.Timestamp.IsZero() {
		pt.Timestamp = s.now().UTC()
	}

	s.apply(ctx, func() bool {
		s.form.Points = append(s.form.Points, pt)
		s.status = StatusNone
		return false
	})
	return nil
}

// PickPhoto asks picker for a photo and attaches it to the draft. ok is false
// when the user cancelled, in which case the draft is unchanged.
func (s *Store) PickPhoto(ctx context.Context, picker PhotoPicker) (string, bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	uri, ok, err := picker.Pick(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.apply(ctx, func() bool {
				s.status = StatusPhotoDenied
				return false
			})
		}
		return "", false, fmt.Errorf("reconcile.Store.PickPhoto: %w", err)
	}
	if !ok || uri == "" {
		return "", false, nil
	}

	s.apply(ctx, func() bool {
		s.form.PhotoURI = &uri
		return false
	})
	return uri, true, nil
}

// Edit loads route id into the draft for editing.
func (s *Store) Edit(id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	r, ok := s.find(id)
	if !ok {
		return fmt.Errorf("reconcile.Store.Edit: route %q: %w", id, domain.ErrNotFound)
	}
	s.apply(context.Background(), func() bool {
		s.form = Form{Name: r.Name, Points: r.Points, PhotoURI: r.PhotoURI, SelectedID: r.ID}
		s.status = StatusNone
		return false
	})
	return nil
}

// ClearForm resets the draft.
func (s *Store) ClearForm() {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.apply(context.Background(), func() bool {
		s.form = Form{}
		return false
	})
}

// Save submits the draft: an update when it targets an existing route,
// a create otherwise.
func (s *Store) Save(ctx context.Context) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	form := s.form.clone()
	s.mu.RUnlock()

	if form.Editing() {
		return s.update(ctx, form.SelectedID, form.Payload())
	}
	return s.create(ctx, form.Payload())
}
