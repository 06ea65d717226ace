package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	info InfoBody
}

// NewInfoHandler reports the store kind and data directory in use and
// whether a backend is configured for Save & Complete.
func NewInfoHandler(dataDir, store string, backend bool) *InfoHandler {
	features := []string{"drawing", "datalog", "geojson", "mvt", "skiptrace"}
	if backend {
		features = append(features, "save")
	}
	return &InfoHandler{info: InfoBody{
		Name:     "plat-mapdraw",
		Version:  Version,
		DataDir:  dataDir,
		Store:    store,
		Backend:  backend,
		Features: features,
	}}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	Store    string   `json:"store" doc:"Data log store" enum:"file,duckdb,memory"`
	Backend  bool     `json:"backend" doc:"Whether Save & Complete has a backend"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: h.info}, nil
}
