package humastar

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, p.Data)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, []string{
		`</x?offset=0&limit=2>; rel="first"`,
		`</x?offset=0&limit=2>; rel="prev"`,
		`</x?offset=4&limit=2>; rel="next"`,
		`</x?offset=4&limit=2>; rel="last"`,
	}, p.PaginationLinks("/x"))

	all := Paginate(items, 0, 0)
	assert.Len(t, all.Data, 5)

	past := Paginate(items, 9, 2)
	assert.Empty(t, past.Data)
	assert.Equal(t, 5, past.Offset)

	assert.Nil(t, Paginate([]int{}, 0, 0).PaginationLinks("/x"))
}

func TestParseSignals(t *testing.T) {
	s, err := ParseSignals([]byte(`{"label":"Lake","lat":44.9}`))
	require.NoError(t, err)
	assert.Equal(t, "Lake", s.String("label"))
	lat, ok := s.Float("lat")
	assert.True(t, ok)
	assert.Equal(t, 44.9, lat)
	_, ok = s.Float("lng")
	assert.False(t, ok)

	empty, err := ParseSignals(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseSignals([]byte("{"))
	assert.Error(t, err)
}

type thingBody struct {
	Name string `json:"name"`
}

func (thingBody) Actions() []Action {
	return []Action{{Rel: "delete", Href: "/things/1", Method: "DELETE", Title: "Delete"}}
}

func TestLinksTransformer(t *testing.T) {
	links := NewLinks()
	config := huma.DefaultConfig("test", "1.0.0")
	config.Transformers = append(config.Transformers, links.Transformer())
	_, api := humatest.New(t, config)

	huma.Get(api, "/health", func(ctx context.Context, _ *struct{}) (*struct{ Body thingBody }, error) {
		return &struct{ Body thingBody }{}, nil
	}, huma.OperationTags("health"))
	huma.Get(api, "/things", func(ctx context.Context, _ *struct{}) (*struct{ Body PageBody[string] }, error) {
		return &struct{ Body PageBody[string] }{Body: Paginate([]string{"a", "b", "c"}, 0, 2)}, nil
	}, huma.OperationTags("things"))
	huma.Get(api, "/things/{id}", func(ctx context.Context, _ *struct {
		ID string `path:"id"`
	}) (*struct{ Body thingBody }, error) {
		return &struct{ Body thingBody }{Body: thingBody{Name: "one"}}, nil
	}, huma.OperationTags("things"))
	links.Build(api)

	resp := api.Get("/things")
	require.Equal(t, http.StatusOK, resp.Code)
	got := resp.Header().Values("Link")
	assert.Contains(t, got, `</things/{id}>; rel="item"`)
	assert.Contains(t, got, `</health>; rel="up"`)
	assert.Contains(t, got, `</things?offset=2&limit=2>; rel="next"`)

	resp = api.Get("/things/1")
	got = resp.Header().Values("Link")
	assert.Contains(t, got, `</things>; rel="collection"`)
	assert.Contains(t, got, `</things/1>; rel="self"`)
	assert.Contains(t, got, `</things/1>; rel="delete"; method="DELETE"; title="Delete"`)

	got = api.Get("/health").Header().Values("Link")
	assert.Contains(t, got, `</things>; rel="things"`)
	assert.Contains(t, got, `</openapi.json>; rel="service-desc"`)
}
