package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
)

// DrawingBody is the drawing session state.
type DrawingBody struct {
	Mode     string       `json:"mode" enum:"idle,pin,area" doc:"Active drawing tool"`
	Vertices [][2]float64 `json:"vertices" doc:"Area vertices drawn so far, [lng, lat]"`
	Complete bool         `json:"complete" doc:"Whether the area can be finished now"`
	Entry    *EntryBody   `json:"entry,omitempty" doc:"Data log entry created by this action"`
}

type DrawingOutput struct {
	Body DrawingBody
}

type StartInput struct {
	Mode string `path:"mode" enum:"idle,pin,area" doc:"Drawing tool"`
}

type ClickInput struct {
	Body struct {
		Lng   float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Longitude" example:"-93.265"`
		Lat   float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Latitude" example:"44.9778"`
		Label string  `json:"label,omitempty" doc:"Label for the entry a completed pin creates"`
	}
}

type FinishInput struct {
	Body *struct {
		Label string `json:"label,omitempty" doc:"Label for the area entry"`
	} `required:"false"`
}

// RegisterDrawing registers drawing session routes.
func (h *APIHandler) RegisterDrawing(api huma.API) {
	huma.Get(api, "/api/v1/drawing", h.GetDrawing, huma.OperationTags("drawing"))
	huma.Post(api, "/api/v1/drawing/start/{mode}", h.StartDrawing, huma.OperationTags("drawing"))
	huma.Post(api, "/api/v1/drawing/click", h.ClickDrawing, huma.OperationTags("drawing"))
	huma.Post(api, "/api/v1/drawing/undo", h.UndoDrawing, huma.OperationTags("drawing"))
	huma.Post(api, "/api/v1/drawing/finish", h.FinishDrawing, huma.OperationTags("drawing"))
	huma.Post(api, "/api/v1/drawing/stop", h.StopDrawing, huma.OperationTags("drawing"))
}

func (h *APIHandler) GetDrawing(ctx context.Context, input *struct{}) (*DrawingOutput, error) {
	return drawingOutput(h.svc.Workspace.State(), nil), nil
}

func (h *APIHandler) StartDrawing(ctx context.Context, input *StartInput) (*DrawingOutput, error) {
	mode, err := drawing.ParseMode(input.Mode)
	if err != nil {
		return nil, httpError(err)
	}
	state, err := h.svc.Workspace.Start(mode)
	if err != nil {
		return nil, httpError(err)
	}
	return drawingOutput(state, nil), nil
}

func (h *APIHandler) ClickDrawing(ctx context.Context, input *ClickInput) (*DrawingOutput, error) {
	p := orb.Point{input.Body.Lng, input.Body.Lat}
	state, entry, err := h.svc.Workspace.Click(ctx, p, input.Body.Label)
	if err != nil {
		return nil, httpError(err)
	}
	return drawingOutput(state, entry), nil
}

func (h *APIHandler) UndoDrawing(ctx context.Context, input *struct{}) (*DrawingOutput, error) {
	state, err := h.svc.Workspace.Undo()
	if err != nil {
		return nil, httpError(err)
	}
	return drawingOutput(state, nil), nil
}

func (h *APIHandler) FinishDrawing(ctx context.Context, input *FinishInput) (*DrawingOutput, error) {
	var label string
	if input.Body != nil {
		label = input.Body.Label
	}
	state, entry, err := h.svc.Workspace.Finish(ctx, label)
	if err != nil {
		return nil, httpError(err)
	}
	return drawingOutput(state, entry), nil
}

func (h *APIHandler) StopDrawing(ctx context.Context, input *struct{}) (*DrawingOutput, error) {
	return drawingOutput(h.svc.Workspace.Stop(), nil), nil
}

func drawingOutput(s drawing.State, e *datalog.Entry) *DrawingOutput {
	body := DrawingBody{
		Mode:     string(s.Mode),
		Vertices: make([][2]float64, len(s.Vertices)),
		Complete: s.Complete,
	}
	for i, v := range s.Vertices {
		body.Vertices[i] = v
	}
	if e != nil {
		eb := entryBody(*e)
		body.Entry = &eb
	}
	return &DrawingOutput{Body: body}
}
