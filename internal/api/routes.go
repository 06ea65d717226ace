// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapdraw/internal/datalog"
	"github.com/joeblew999/plat-mapdraw/internal/drawing"
	"github.com/joeblew999/plat-mapdraw/internal/feature"
	"github.com/joeblew999/plat-mapdraw/internal/service"
	"github.com/joeblew999/plat-mapdraw/internal/tiles"
)

// Version is the API version reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Workspace *service.Workspace
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterRoutes registers every REST route of h on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

// httpError maps domain errors onto HTTP problems.
func httpError(err error) error {
	switch {
	case errors.Is(err, feature.ErrInvalidGeometry),
		errors.Is(err, feature.ErrUnsupportedGeometry),
		errors.Is(err, feature.ErrUnknownFeatureType),
		errors.Is(err, drawing.ErrUnknownMode),
		errors.Is(err, tiles.ErrBadTile):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, datalog.ErrEntryNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, drawing.ErrNotDrawing),
		errors.Is(err, drawing.ErrTooFewVertices),
		errors.Is(err, drawing.ErrNoVertices):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, service.ErrSaveUnavailable):
		return huma.Error503ServiceUnavailable(err.Error())
	default:
		return huma.Error500InternalServerError("data log storage failed", err)
	}
}
