package editor

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
	"github.com/joeblew999/plat-mapdraw/internal/service"
	"github.com/joeblew999/plat-mapdraw/internal/templates"
)

type fixture struct {
	mux *http.ServeMux
	ws  *service.Workspace
	bus *service.EventBus
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	renderer, err := templates.New("")
	require.NoError(t, err)

	bus := service.NewEventBus()
	log := datalog.New(datalog.NewMemoryKV(), datalog.OnChange(service.LogChanges(bus)))
	ws := service.NewWorkspace(log, nil, service.BusSurface{Bus: bus}, nil)

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("editor test", "1.0.0"))
	NewDataLogHandler(ws, renderer).RegisterRoutes(api)
	NewEventHandler(ws, bus, renderer).RegisterRoutes(api)
	return fixture{mux: mux, ws: ws, bus: bus}
}

func (f fixture) do(t *testing.T, method, path, body string) string {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Body.String()
}

func addPin(t *testing.T, ws *service.Workspace, lng, lat float64, label string) datalog.Entry {
	t.Helper()
	_, err := ws.Start(drawing.Pin)
	require.NoError(t, err)
	_, e, err := ws.Click(context.Background(), orb.Point{lng, lat}, label)
	require.NoError(t, err)
	require.NotNil(t, e)
	return *e
}

func TestListEntries(t *testing.T) {
	f := newFixture(t)

	body := f.do(t, http.MethodGet, "/api/v1/editor/datalog", "")
	assert.Contains(t, body, "datastar-patch-elements")
	assert.Contains(t, body, "No pending edits")

	e := addPin(t, f.ws, -93.2650, 44.9778, "Mill City")
	body = f.do(t, http.MethodGet, "/api/v1/editor/datalog", "")
	assert.Contains(t, body, "entry-"+e.ID)
	assert.Contains(t, body, "Mill City")
	assert.Contains(t, body, "44.97780, -93.26500")
	assert.Contains(t, body, `"datalogCount":1`)
}

func TestClickAndFinishFromSignals(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/v1/editor/drawing/start/area", "")
	for _, p := range []string{
		`{"lng":-93.30,"lat":44.95}`,
		`{"lng":-93.20,"lat":44.95}`,
		`{"lng":-93.25,"lat":45.00}`,
	} {
		body := f.do(t, http.MethodPost, "/api/v1/editor/drawing/click", p)
		assert.Contains(t, body, `"drawingMode":"area"`)
	}

	body := f.do(t, http.MethodPost, "/api/v1/editor/drawing/finish", `{"label":"Loring Park"}`)
	assert.Contains(t, body, "Area added to the data log")
	assert.Contains(t, body, `"drawingMode":"idle"`)

	entries, err := f.ws.Log().List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Loring Park", entries[0].LabelString())

	body = f.do(t, http.MethodPost, "/api/v1/editor/drawing/finish", `{}`)
	assert.Contains(t, body, drawing.ErrNotDrawing.Error())
}

func TestRemoveEntry(t *testing.T) {
	f := newFixture(t)
	e := addPin(t, f.ws, -93.2650, 44.9778, "")

	body := f.do(t, http.MethodDelete, "/api/v1/editor/datalog/"+e.ID, "")
	assert.Contains(t, body, "entry-"+e.ID)
	assert.Contains(t, body, "Entry removed")

	body = f.do(t, http.MethodDelete, "/api/v1/editor/datalog/"+e.ID, "")
	assert.Contains(t, body, "not found")
}

func TestSaveWithoutBackend(t *testing.T) {
	f := newFixture(t)
	body := f.do(t, http.MethodPost, "/api/v1/editor/datalog/save", "")
	assert.Contains(t, body, service.ErrSaveUnavailable.Error())
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/editor/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	waitFor := func(s string) {
		t.Helper()
		for lines.Scan() {
			if strings.Contains(lines.Text(), s) {
				return
			}
		}
		t.Fatalf("stream ended before %q", s)
	}

	// The initial list patch means the stream is subscribed.
	waitFor("No pending edits")

	_, err = f.ws.Start(drawing.Area)
	require.NoError(t, err)
	_, _, err = f.ws.Click(ctx, orb.Point{-93.30, 44.95}, "")
	require.NoError(t, err)
	waitFor("draft-changed")

	addPin(t, f.ws, -93.2650, 44.9778, "Mill City")
	waitFor("Mill City")
	waitFor("datalog-changed")
}
