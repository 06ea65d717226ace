package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/humastar"
	"github.com/joeblew999/plat-mapdraw/internal/tiles"
)

// GeoJSONContentType is the media type of the features endpoint.
const GeoJSONContentType = "application/geo+json"

type IDInput struct {
	ID string `path:"id" doc:"Data log entry ID"`
}

type ListInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Entries to skip"`
	Limit  int `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Page size"`
}

// DataLogPage is a page of data log entries.
type DataLogPage struct {
	humastar.PageBody[EntryBody]
	CanSave bool `json:"canSave" doc:"Whether Save & Complete is available"`
}

// Actions offers Save & Complete and clearing while the log has entries.
func (p DataLogPage) Actions() []humastar.Action {
	if p.Total == 0 {
		return nil
	}
	actions := []humastar.Action{{Rel: "clear", Href: "/api/v1/datalog", Method: "DELETE", Title: "Clear data log"}}
	if p.CanSave {
		actions = append(actions, humastar.Action{Rel: "save", Href: "/api/v1/datalog/save", Method: "POST", Title: "Save & Complete"})
	}
	return actions
}

type AddInput struct {
	Body struct {
		Feature FeatureBody `json:"feature" doc:"GeoJSON feature to stage"`
		Label   string      `json:"label,omitempty" doc:"User label"`
	}
}

type EntryOutput struct {
	Body EntryBody
}

type FeaturesOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type TileInput struct {
	Z int `path:"z" minimum:"0" maximum:"22" doc:"Zoom"`
	X int `path:"x" minimum:"0" doc:"Tile column"`
	Y int `path:"y" minimum:"0" doc:"Tile row"`
}

type TileOutput struct {
	Status          int
	ContentType     string `header:"Content-Type"`
	ContentEncoding string `header:"Content-Encoding"`
	Body            []byte
}

// FailureBody is an entry the backend rejected.
type FailureBody struct {
	EntryID string `json:"entryId" doc:"Data log entry id"`
	Error   string `json:"error" doc:"Backend error"`
}

// SaveBody reports a Save & Complete run.
type SaveBody struct {
	Saved     []SavedBody   `json:"saved" doc:"Entries saved and removed from the log"`
	Failed    []FailureBody `json:"failed" doc:"Entries left in the log for retry"`
	Remaining int           `json:"remaining" doc:"Entries left in the log"`
}

type SavedBody struct {
	EntryID string `json:"entryId" doc:"Data log entry id"`
	RowID   string `json:"rowId,omitempty" doc:"Id of the created backend row"`
}

// RegisterDataLog registers data log routes.
func (h *APIHandler) RegisterDataLog(api huma.API) {
	huma.Get(api, "/api/v1/datalog", h.ListEntries, huma.OperationTags("datalog"))
	huma.Post(api, "/api/v1/datalog", h.AddEntry, huma.OperationTags("datalog"))
	huma.Delete(api, "/api/v1/datalog", h.ClearEntries, huma.OperationTags("datalog"))
	huma.Get(api, "/api/v1/datalog/features", h.GetFeatures, huma.OperationTags("datalog"))
	huma.Post(api, "/api/v1/datalog/save", h.SaveEntries, huma.OperationTags("datalog"))
	huma.Get(api, "/api/v1/datalog/tiles/{z}/{x}/{y}", h.GetTile, huma.OperationTags("tiles"))
	// Literal paths first: some routers match in registration order.
	huma.Get(api, "/api/v1/datalog/{id}", h.GetEntry, huma.OperationTags("datalog"))
	huma.Delete(api, "/api/v1/datalog/{id}", h.RemoveEntry, huma.OperationTags("datalog"))
}

func (h *APIHandler) ListEntries(ctx context.Context, input *ListInput) (*struct{ Body DataLogPage }, error) {
	entries, err := h.svc.Workspace.Log().List(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	bodies := make([]EntryBody, len(entries))
	for i, e := range entries {
		bodies[i] = entryBody(e)
	}
	return &struct{ Body DataLogPage }{Body: DataLogPage{
		PageBody: humastar.Paginate(bodies, input.Offset, input.Limit),
		CanSave:  h.svc.Workspace.CanSave(),
	}}, nil
}

func (h *APIHandler) AddEntry(ctx context.Context, input *AddInput) (*EntryOutput, error) {
	f, err := toFeature(input.Body.Feature)
	if err != nil {
		return nil, httpError(err)
	}
	e, err := h.svc.Workspace.Log().Add(ctx, f, input.Body.Label)
	if err != nil {
		return nil, httpError(err)
	}
	return &EntryOutput{Body: entryBody(e)}, nil
}

func (h *APIHandler) GetEntry(ctx context.Context, input *IDInput) (*EntryOutput, error) {
	e, err := h.svc.Workspace.Log().Get(ctx, input.ID)
	if err != nil {
		return nil, httpError(err)
	}
	return &EntryOutput{Body: entryBody(e)}, nil
}

func (h *APIHandler) RemoveEntry(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Workspace.Log().Remove(ctx, input.ID); err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Entry removed"}}, nil
}

func (h *APIHandler) ClearEntries(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Workspace.Log().Clear(ctx); err != nil {
		return nil, httpError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Data log cleared"}}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *struct{}) (*FeaturesOutput, error) {
	entries, err := h.svc.Workspace.Log().List(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	data, err := datalog.Collection(entries).MarshalJSON()
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode features", err)
	}
	return &FeaturesOutput{ContentType: GeoJSONContentType, Body: data}, nil
}

func (h *APIHandler) GetTile(ctx context.Context, input *TileInput) (*TileOutput, error) {
	tile, err := tiles.Tile(input.Z, input.X, input.Y)
	if err != nil {
		return nil, httpError(err)
	}
	entries, err := h.svc.Workspace.Log().List(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	data, err := tiles.Render(datalog.Collection(entries), tile)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to encode tile", err)
	}
	if data == nil {
		return &TileOutput{Status: http.StatusNoContent}, nil
	}
	return &TileOutput{
		Status:          http.StatusOK,
		ContentType:     tiles.ContentType,
		ContentEncoding: "gzip",
		Body:            data,
	}, nil
}

func (h *APIHandler) SaveEntries(ctx context.Context, input *struct{}) (*struct{ Body SaveBody }, error) {
	res, err := h.svc.Workspace.Save(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	body := SaveBody{Saved: []SavedBody{}, Failed: []FailureBody{}}
	for _, s := range res.Saved {
		body.Saved = append(body.Saved, SavedBody{EntryID: s.EntryID, RowID: s.RowID})
	}
	for _, f := range res.Failed {
		body.Failed = append(body.Failed, FailureBody{EntryID: f.EntryID, Error: f.Err.Error()})
	}
	left, err := h.svc.Workspace.Log().List(ctx)
	if err != nil {
		return nil, httpError(err)
	}
	body.Remaining = len(left)
	return &struct{ Body SaveBody }{Body: body}, nil
}
