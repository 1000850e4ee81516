package gateway

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/pamojavote/pamoja-go/models"
)

// List fetches a list endpoint and normalizes its response into a Page. The
// backend answers some list endpoints with a bare array and others with a
// {results, count, next, previous} envelope; both are accepted.
func List[T any](ctx context.Context, g *Gateway, path string, query map[string]any) (models.Page[T], error) {
	var raw json.RawMessage
	if err := g.Get(ctx, path, query, &raw); err != nil {
		return models.Page[T]{}, err
	}
	return DecodePage[T](http.MethodGet, path, raw)
}

func DecodePage[T any](method, path string, raw []byte) (models.Page[T], error) {
	var page models.Page[T]

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		page.Results = []T{}
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &page.Results); err != nil {
			return page, decodeError(method, path, err)
		}
		page.Count = len(page.Results)
	case gjson.GetBytes(trimmed, "results").IsArray():
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return page, decodeError(method, path, err)
		}
		if page.Count == 0 {
			page.Count = len(page.Results)
		}
	default:
		return page, decodeError(method, path, errors.New("response is neither a list nor a paginated envelope"))
	}

	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}
