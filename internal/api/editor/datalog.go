// Package editor contains Datastar SSE handlers for the editor UI.
package editor

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
	"github.com/joeblew999/plat-mapdraw/internal/humastar"
	"github.com/joeblew999/plat-mapdraw/internal/service"
	"github.com/joeblew999/plat-mapdraw/internal/templates"
)

// ListSelector is the element the rendered data log is patched into.
const ListSelector = "#datalog-list"

type DataLogHandler struct {
	humastar.Handler
	ws *service.Workspace
}

func NewDataLogHandler(ws *service.Workspace, renderer *templates.Renderer) *DataLogHandler {
	return &DataLogHandler{Handler: humastar.Handler{Renderer: renderer}, ws: ws}
}

func (h *DataLogHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/datalog", h.ListEntries, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/datalog/save", h.SaveEntries, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/datalog/{id}", h.RemoveEntry, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/drawing/start/{mode}", h.StartDrawing, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/drawing/click", h.Click, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/drawing/finish", h.Finish, huma.OperationTags("editor"))
}

func (h *DataLogHandler) ListEntries(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.patchList(ctx, sse)
	}), nil
}

type RemoveInput struct {
	ID string `path:"id" doc:"Data log entry ID"`
}

func (h *DataLogHandler) RemoveEntry(ctx context.Context, input *RemoveInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.ws.Log().Remove(ctx, input.ID); err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Remove("entry-" + input.ID)
		sse.Success("Entry removed")
	}), nil
}

func (h *DataLogHandler) SaveEntries(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		res, err := h.ws.Save(ctx)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		h.patchList(ctx, sse)
		if len(res.Failed) > 0 {
			sse.Error(fmt.Sprintf("Saved %d, %d failed and stay in the log: %v",
				len(res.Saved), len(res.Failed), res.Err()))
			return
		}
		sse.Success(fmt.Sprintf("Saved %d entries", len(res.Saved)))
	}), nil
}

type StartInput struct {
	Mode string `path:"mode" enum:"idle,pin,area" doc:"Drawing tool"`
}

func (h *DataLogHandler) StartDrawing(ctx context.Context, input *StartInput) (*huma.StreamResponse, error) {
	mode, err := drawing.ParseMode(input.Mode)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		state, err := h.ws.Start(mode)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sse.Signals(drawingSignals(state))
	}), nil
}

// Click reads the clicked position from the lng and lat signals and the
// entry label from the label signal.
func (h *DataLogHandler) Click(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	lng, okLng := signals.Float("lng")
	lat, okLat := signals.Float("lat")
	if !okLng || !okLat {
		return nil, huma.Error400BadRequest("lng and lat signals are required")
	}

	return h.Stream(func(sse humastar.SSE) {
		state, entry, err := h.ws.Click(ctx, orb.Point{lng, lat}, signals.String("label"))
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sig := drawingSignals(state)
		if entry != nil {
			sig["label"] = ""
			sig["success"] = "Pin added to the data log"
		}
		sse.Signals(sig)
	}), nil
}

func (h *DataLogHandler) Finish(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		state, _, err := h.ws.Finish(ctx, signals.String("label"))
		if err != nil {
			sse.Error(err.Error())
			return
		}
		sig := drawingSignals(state)
		sig["label"] = ""
		sig["success"] = "Area added to the data log"
		sse.Signals(sig)
	}), nil
}

func drawingSignals(s drawing.State) map[string]any {
	return map[string]any{
		"drawingMode":     string(s.Mode),
		"drawingVertices": len(s.Vertices),
		"drawingComplete": s.Complete,
		"error":           "",
	}
}

func (h *DataLogHandler) patchList(ctx context.Context, sse humastar.SSE) {
	entries, err := h.ws.Log().List(ctx)
	if err != nil {
		sse.Error(err.Error())
		return
	}
	sse.Patch(h.renderList(entries), ListSelector)
	sse.Signals(map[string]any{"datalogCount": len(entries), "canSave": h.ws.CanSave() && len(entries) > 0})
}

// EntryView is the template data of one data log row.
type EntryView struct {
	ID        string
	Type      string
	Label     string
	Lat, Lng  float64
	Timestamp int64
}

func (h *DataLogHandler) renderList(entries []datalog.Entry) string {
	items := make([]any, len(entries))
	for i, e := range entries {
		typ, _ := e.Type()
		center := feature.Summarize(e.Feature).Center
		items[i] = EntryView{
			ID:        e.ID,
			Type:      string(typ),
			Label:     e.LabelString(),
			Lat:       center.Lat(),
			Lng:       center.Lon(),
			Timestamp: e.Timestamp,
		}
	}
	return h.RenderList("datalog-entry", items,
		"No pending edits", "Pick the pin or area tool and click the map.")
}
