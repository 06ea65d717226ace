package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
)

type captured struct {
	path    string
	headers http.Header
	body    map[string]any
}

func fakeBackend(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.headers = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestSubmitPin(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusCreated, `[{"id": 42, "name": "Gold Medal Park"}]`)
	c := New(Config{
		BaseURL:       srv.URL + "/",
		APIKey:        "anon",
		AccessToken:   "jwt",
		SessionCookie: "sb-access-token=abc",
	}, nil)
	defer c.Close()

	f, err := feature.NewPin(orb.Point{-93.2650, 44.9778})
	require.NoError(t, err)
	f.Properties["category"] = "park"
	label := "Gold Medal Park"

	id, err := c.Submit(context.Background(), datalog.Entry{ID: "e1", Feature: f, Label: &label})
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	assert.Equal(t, "/rest/v1/pins", got.path)
	assert.Equal(t, "anon", got.headers.Get("apikey"))
	assert.Equal(t, "Bearer jwt", got.headers.Get("Authorization"))
	assert.Equal(t, "sb-access-token=abc", got.headers.Get("Cookie"))
	assert.Equal(t, "return=representation", got.headers.Get("Prefer"))

	assert.Equal(t, "Gold Medal Park", got.body["name"])
	assert.Equal(t, 44.9778, got.body["lat"])
	assert.Equal(t, -93.2650, got.body["lng"])
	assert.Equal(t, map[string]any{"category": "park"}, got.body["properties"])
}

func TestSubmitArea(t *testing.T) {
	srv, got := fakeBackend(t, http.StatusCreated, `[{"id": "9f1c"}]`)
	c := New(Config{BaseURL: srv.URL}, nil)
	defer c.Close()

	f, err := feature.NewArea([]orb.Point{{-93.3, 44.9}, {-93.2, 44.9}, {-93.2, 45.0}, {-93.3, 45.0}})
	require.NoError(t, err)

	id, err := c.Submit(context.Background(), datalog.Entry{ID: "e2", Feature: f})
	require.NoError(t, err)
	assert.Equal(t, "9f1c", id)

	assert.Equal(t, "/rest/v1/areas", got.path)
	geom, ok := got.body["geometry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polygon", geom["type"])
	assert.Greater(t, got.body["area_sq_m"], 0.0)
	assert.InDelta(t, -93.25, got.body["center_lng"], 1e-9)
	_, named := got.body["name"]
	assert.False(t, named)
}

func TestStructuredError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusConflict,
		`{"code":"23505","message":"duplicate key value","details":"Key (id) exists","hint":null}`)
	c := New(Config{BaseURL: srv.URL}, nil)
	defer c.Close()

	_, err := c.CreatePin(context.Background(), PinInput{Lat: 1, Lng: 2})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "23505", apiErr.Code)
	assert.Equal(t, "duplicate key value", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "23505")
}

func TestPlainTextError(t *testing.T) {
	srv, _ := fakeBackend(t, http.StatusBadGateway, "upstream down")
	c := New(Config{BaseURL: srv.URL}, nil)
	defer c.Close()

	_, err := c.CreatePin(context.Background(), PinInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestNotConfigured(t *testing.T) {
	c := New(Config{}, nil)
	assert.False(t, c.Configured())
	_, err := c.CreatePin(context.Background(), PinInput{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreatedWithoutRepresentation(t *testing.T) {
	f, err := feature.NewPin(orb.Point{-93.2650, 44.9778})
	require.NoError(t, err)

	for _, reply := range []string{"", "  \n", "Created"} {
		srv, got := fakeBackend(t, http.StatusCreated, reply)
		c := New(Config{BaseURL: srv.URL}, nil)

		id, err := c.Submit(context.Background(), datalog.Entry{ID: "e1", Feature: f})
		require.NoError(t, err, "reply %q", reply)
		assert.Empty(t, id)
		assert.Equal(t, "/rest/v1/pins", got.path)
		c.Close()
	}
}
