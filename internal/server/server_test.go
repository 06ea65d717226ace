package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapdraw/internal/backend"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
)

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerRoutes(t *testing.T) {
	s, err := New(Config{Host: "localhost", Port: "8087", DataDir: t.TempDir(), Store: StoreMemory})
	require.NoError(t, err)
	defer s.Close()

	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Values("Link"), `</openapi.json>; rel="service-desc"`)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)

	rec = get(t, s, "/editor")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="datalog-list"`)

	assert.NotNil(t, s.OpenAPI().Paths["/api/v1/datalog/save"])
	assert.False(t, s.Workspace().CanSave())
}

func TestEditorReloadsFragments(t *testing.T) {
	web := t.TempDir()
	dir := filepath.Join(web, "templates", "fragments")
	require.NoError(t, os.MkdirAll(dir, 0755))
	write := func(page string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.html"),
			[]byte(`{{define "editor-page"}}`+page+`{{end}}`), 0644))
	}
	write("v1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "datalog.html"),
		[]byte(`{{define "datalog-entry"}}{{.ID}}{{end}}{{define "empty-state"}}{{.Title}}{{end}}`), 0644))

	s, err := New(Config{DataDir: t.TempDir(), WebDir: web, Store: StoreMemory, ReloadTemplates: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "v1", get(t, s, "/editor").Body.String())
	write("v2")
	assert.Equal(t, "v2", get(t, s, "/editor").Body.String())
}

func TestBackendEnablesSave(t *testing.T) {
	s, err := New(Config{
		DataDir: t.TempDir(),
		Store:   StoreMemory,
		Backend: backend.Config{BaseURL: "http://backend.invalid"},
	})
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.Workspace().CanSave())
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := New(Config{DataDir: dir, Store: StoreFile})
	require.NoError(t, err)
	ws := s.Workspace()
	_, err = ws.Start(drawing.Pin)
	require.NoError(t, err)
	_, e, err := ws.Click(ctx, orb.Point{-93.2650, 44.9778}, "Mill City")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(Config{DataDir: dir, Store: StoreFile})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Workspace().Log().Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mill City", got.LabelString())
}

func TestUnknownStore(t *testing.T) {
	_, err := New(Config{DataDir: t.TempDir(), Store: "redis"})
	assert.Error(t, err)
}
