package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fitroute/internal/domain"
	"github.com/pkordes/fitroute/internal/reconcile"
)

func fixedLocator(pts ...domain.RoutePoint) reconcile.Locator {
	i := 0
	return reconcile.LocatorFunc(func(context.Context) (domain.RoutePoint, error) {
		pt := pts[i%len(pts)]
		i++
		return pt, nil
	})
}

var deniedLocator = reconcile.LocatorFunc(func(context.Context) (domain.RoutePoint, error) {
	return domain.RoutePoint{}, fmt.Errorf("gps: %w", domain.ErrPermissionDenied)
})

func TestStore_AddPoint_AppendsAndStampsTime(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	loc := fixedLocator(domain.RoutePoint{Latitude: 1, Longitude: 2}, domain.RoutePoint{Latitude: 3, Longitude: 4})

	require.NoError(t, s.AddPoint(context.Background(), loc))
	require.NoError(t, s.AddPoint(context.Background(), loc))

	form := s.Snapshot().Form
	require.Len(t, form.Points, 2)
	assert.Equal(t, 3.0, form.Points[1].Latitude)
	assert.True(t, form.Points[0].Timestamp.Equal(testNow))
}

// TestStore_AddPoint_PermissionDenied verifies that a refused GPS permission
// leaves the draft untouched and sets the permission status.
func TestStore_AddPoint_PermissionDenied(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	require.NoError(t, s.AddPoint(context.Background(), fixedLocator(domain.RoutePoint{Latitude: 1})))

	err := s.AddPoint(context.Background(), deniedLocator)

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	snap := s.Snapshot()
	assert.Len(t, snap.Form.Points, 1)
	assert.Equal(t, reconcile.StatusLocationDenied, snap.Status)
}

func TestStore_AddPoint_OtherErrorKeepsStatus(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	boom := reconcile.LocatorFunc(func(context.Context) (domain.RoutePoint, error) {
		return domain.RoutePoint{}, errors.New("no fix")
	})

	err := s.AddPoint(context.Background(), boom)

	require.Error(t, err)
	assert.Equal(t, reconcile.StatusNone, s.Snapshot().Status)
	assert.Empty(t, s.Snapshot().Form.Points)
}

func TestStore_PickPhoto(t *testing.T) {
	tests := []struct {
		name    string
		picker  reconcile.PhotoPickerFunc
		wantURI string
		wantOK  bool
		wantErr error
		status  reconcile.Status
	}{
		{
			name:    "picked",
			picker:  func(context.Context) (string, bool, error) { return "file:///a.jpg", true, nil },
			wantURI: "file:///a.jpg",
			wantOK:  true,
		},
		{
			name:   "cancelled",
			picker: func(context.Context) (string, bool, error) { return "", false, nil },
		},
		{
			name: "denied",
			picker: func(context.Context) (string, bool, error) {
				return "", false, domain.ErrPermissionDenied
			},
			wantErr: domain.ErrPermissionDenied,
			status:  reconcile.StatusPhotoDenied,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newStore(t, failingRemote(), nil)

			uri, ok, err := s.PickPhoto(context.Background(), tc.picker)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantURI, uri)
			assert.Equal(t, tc.wantOK, ok)
			snap := s.Snapshot()
			assert.Equal(t, tc.status, snap.Status)
			if tc.wantOK {
				require.NotNil(t, snap.Form.PhotoURI)
				assert.Equal(t, tc.wantURI, *snap.Form.PhotoURI)
			} else {
				assert.Nil(t, snap.Form.PhotoURI)
			}
		})
	}
}

func TestStore_Save_CreatesFromDraft(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	s.SetName("  Lunch walk ")
	loc := fixedLocator(domain.RoutePoint{Latitude: 1}, domain.RoutePoint{Latitude: 2})
	require.NoError(t, s.AddPoint(context.Background(), loc))
	require.NoError(t, s.AddPoint(context.Background(), loc))

	out, err := s.Save(context.Background())

	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusCreatedLocally, out.Status)
	assert.Equal(t, "Lunch walk", out.Route.Name)
	assert.Equal(t, reconcile.Form{}, s.Snapshot().Form)
}

func TestStore_Save_DraftValidation(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	s.SetName("Solo point")
	require.NoError(t, s.AddPoint(context.Background(), fixedLocator(domain.RoutePoint{Latitude: 1})))

	_, err := s.Save(context.Background())

	assert.ErrorIs(t, err, domain.ErrValidation)
	snap := s.Snapshot()
	assert.Equal(t, reconcile.StatusPointsRequired, snap.Status)
	assert.Equal(t, "Solo point", snap.Form.Name, "draft kept for correction")
	assert.Empty(t, snap.Routes)
}

func TestStore_EditThenSave_Updates(t *testing.T) {
	var updatedID string
	remote := &mockRemote{updateFn: func(_ context.Context, id string, p domain.RoutePayload) (domain.Route, error) {
		updatedID = id
		return domain.Route{ID: id, Name: p.Name, Points: p.Points}, nil
	}}
	s, _ := seededForUpdate(t, remote)

	require.NoError(t, s.Edit("2"))
	snap := s.Snapshot()
	assert.Equal(t, "2", snap.Form.SelectedID)
	assert.Equal(t, "Other", snap.Form.Name)
	sel, ok := snap.Selected()
	require.True(t, ok)
	assert.Equal(t, "2", sel.ID)

	s.SetName("Other, renamed")
	require.NoError(t, s.AddPoint(context.Background(), fixedLocator(domain.RoutePoint{Latitude: 5})))
	require.NoError(t, s.AddPoint(context.Background(), fixedLocator(domain.RoutePoint{Latitude: 6})))
	out, err := s.Save(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2", updatedID)
	assert.Equal(t, reconcile.StatusUpdated, out.Status)
	assert.True(t, out.Route.CreatedAt.Equal(at(2)))
	assert.Equal(t, reconcile.Form{}, s.Snapshot().Form)
}

func TestStore_Edit_UnknownID(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)

	assert.ErrorIs(t, s.Edit("nope"), domain.ErrNotFound)
}

func TestStore_ClearForm(t *testing.T) {
	s, _ := newStore(t, failingRemote(), nil)
	s.SetName("draft")

	s.ClearForm()

	assert.Equal(t, reconcile.Form{}, s.Snapshot().Form)
}

func TestSnapshot_MapPoints(t *testing.T) {
	selected := domain.Route{ID: "1", Points: []domain.RoutePoint{{Latitude: 9}}}
	draft := []domain.RoutePoint{{Latitude: 1}, {Latitude: 2}}

	editing := reconcile.Snapshot{
		Routes: []domain.Route{selected},
		Form:   reconcile.Form{Points: draft, SelectedID: "1"},
	}
	composing := reconcile.Snapshot{
		Routes: []domain.Route{selected},
		Form:   reconcile.Form{Points: draft},
	}

	assert.Equal(t, selected.Points, editing.MapPoints())
	assert.Equal(t, draft, composing.MapPoints())
}

func TestForm_Payload_TrimsName(t *testing.T) {
	f := reconcile.Form{Name: "  Hill climb\t", Points: []domain.RoutePoint{{}, {}}}

	p := f.Payload()

	assert.Equal(t, "Hill climb", p.Name)
	assert.Len(t, p.Points, 2)
}
