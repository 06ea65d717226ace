package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapdraw/internal/skiptrace"
)

type SkiptraceInput struct {
	RawBody []byte `contentType:"application/json"`
}

type SkiptraceBody struct {
	People   []skiptrace.Person  `json:"people" doc:"Mapped person records"`
	Problems []skiptrace.Problem `json:"problems" doc:"Records skipped while mapping"`
}

// RegisterSkiptrace registers the people-search mapping route.
func (h *APIHandler) RegisterSkiptrace(api huma.API) {
	huma.Post(api, "/api/v1/skiptrace/parse", h.ParseSkiptrace,
		huma.OperationTags("skiptrace"),
	)
}

func (h *APIHandler) ParseSkiptrace(ctx context.Context, input *SkiptraceInput) (*struct{ Body SkiptraceBody }, error) {
	people, problems, err := skiptrace.Parse(input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	body := SkiptraceBody{People: people, Problems: problems}
	if body.People == nil {
		body.People = []skiptrace.Person{}
	}
	if body.Problems == nil {
		body.Problems = []skiptrace.Problem{}
	}
	return &struct{ Body SkiptraceBody }{Body: body}, nil
}
