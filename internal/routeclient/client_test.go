package routeclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fitroute/internal/domain"
	"github.com/pkordes/fitroute/internal/routeclient"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newClient(t *testing.T, h http.HandlerFunc) *routeclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return routeclient.New(srv.URL, 2*time.Second, routeclient.WithClock(func() time.Time { return fixedNow }))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_List(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/routes", r.URL.Path)
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "1", "name": "A", "points": []any{}, "createdAt": "2024-01-01T00:00:00Z"},
		})
	})

	routes, err := c.List(context.Background())

	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "1", routes[0].ID)
	assert.Equal(t, "A", routes[0].Name)
	assert.True(t, routes[0].CreatedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestClient_Create_SendsPayloadAndCreatedAt(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/routes", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "srv-1", "name": "Run", "points": []any{}, "createdAt": "2024-05-01T12:00:00Z",
		})
	})

	route, err := c.Create(context.Background(), domain.RoutePayload{
		Name:   "Run",
		Points: []domain.RoutePoint{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}},
	})

	require.NoError(t, err)
	assert.Equal(t, "srv-1", route.ID)
	assert.Equal(t, "Run", got["name"])
	assert.Equal(t, "2024-05-01T12:00:00Z", got["createdAt"])
	assert.Len(t, got["points"], 2)
}

func TestClient_Update_UsesPutOnID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/routes/abc", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"id": "abc", "name": "Renamed", "points": []any{}})
	})

	route, err := c.Update(context.Background(), "abc", domain.RoutePayload{Name: "Renamed"})

	require.NoError(t, err)
	assert.Equal(t, "Renamed", route.Name)
}

func TestClient_Delete_NoContent(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/routes/abc", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.Delete(context.Background(), "abc"))
}

func TestClient_NonJSONResponse_IsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})

	route, err := c.Update(context.Background(), "abc", domain.RoutePayload{Name: "x"})

	require.NoError(t, err)
	assert.Empty(t, route.ID)
}

func TestClient_Non2xx_IsUnavailable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	})

	_, err := c.List(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	var se *routeclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.Delete(context.Background(), "gone")

	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClient_MalformedJSON_IsUnavailable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := c.List(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestClient_ServerDown_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := routeclient.New(url, time.Second).List(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestClient_Timeout_IsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	_, err := routeclient.New(srv.URL, 50*time.Millisecond).List(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
