package gateway

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRefreshPath = "/auth/refresh/"
	DefaultServiceName = "pamoja-client"
)

type Option func(*Gateway)

// WithTimeout bounds every network call, including the renewal call.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

func WithRefreshPath(path string) Option {
	return func(g *Gateway) {
		if path != "" {
			g.refreshPath = path
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithListener registers a receiver for session lifecycle events.
func WithListener(listener Listener) Option {
	return func(g *Gateway) {
		g.listener = listener
	}
}

// WithRestyClient replaces the underlying HTTP client. Base URL and JSON
// settings are still applied by New.
func WithRestyClient(client *resty.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

// WithServiceName sets the tracer name used for client spans.
func WithServiceName(name string) Option {
	return func(g *Gateway) {
		if name != "" {
			g.serviceName = name
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(g *Gateway) {
		g.headers[key] = value
	}
}
