package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/plat-mapdraw/internal/humastar"
	"github.com/joeblew999/plat-mapdraw/internal/service"
	"github.com/joeblew999/plat-mapdraw/internal/templates"
)

// EventHandler streams workspace change events to the Datastar UI via SSE.
type EventHandler struct {
	list *DataLogHandler
	bus  *service.EventBus
}

func NewEventHandler(ws *service.Workspace, bus *service.EventBus, renderer *templates.Renderer) *EventHandler {
	return &EventHandler{list: NewDataLogHandler(ws, renderer), bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events,
		huma.OperationTags("editor"),
	)
}

// Events sends the current data log, then a list patch and a
// datalog-changed event for every log change and a draft-changed event
// carrying the in-progress geometry for every drawing change.
func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.list.Stream(func(sse humastar.SSE) {
		ch := h.bus.Subscribe()
		defer h.bus.Unsubscribe(ch)

		h.list.patchList(ctx, sse)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				switch ev.Resource {
				case service.ResourceDataLog:
					h.list.patchList(ctx, sse)
					sse.DispatchCustomEvent("datalog-changed", map[string]any{
						"action": ev.Action,
						"ids":    ev.IDs,
						"count":  ev.Count,
					})
				case service.ResourceDrawing:
					var draft *geojson.Geometry
					if ev.Draft != nil {
						draft = geojson.NewGeometry(ev.Draft)
					}
					sse.DispatchCustomEvent("draft-changed", map[string]any{
						"geometry": draft,
					})
				}
			}
		}
	}), nil
}
