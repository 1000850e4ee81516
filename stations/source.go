package stations

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pamojavote/pamoja-go/otel"
)

// Source fetches the raw GeoJSON document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type FileSource struct {
	Path string
}

func (f FileSource) Fetch(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load polling stations data: %w", err)
	}
	return raw, nil
}

// URLSource downloads the document over HTTP, retrying transient failures.
type URLSource struct {
	client *resty.Client
	url    string
}

func NewURLSource(url string, timeout time.Duration) *URLSource {
	client := otel.NewTracedRestyClient("").
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(200 * time.Millisecond)
	return &URLSource{client: client, url: url}
}

func (u *URLSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := u.client.R().SetContext(ctx).Get(u.url)
	if err != nil {
		return nil, fmt.Errorf("failed to load polling stations data: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to load polling stations data: %s returned %d", u.url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// NewSource picks a URL or file source from location.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewURLSource(location, timeout)
	}
	return FileSource{Path: location}
}
