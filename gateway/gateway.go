// Package gateway issues every backend API call on behalf of the client.
//
// It attaches the stored access token, renews it once through the refresh
// token when the backend answers 401, retries the original call at most once,
// and reports failures as *Error values of a fixed set of kinds.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pamojavote/pamoja-go/models"
	"github.com/pamojavote/pamoja-go/otel"
	otellogger "github.com/pamojavote/pamoja-go/otel/logger"
	"github.com/pamojavote/pamoja-go/otel/metrics"
	"github.com/pamojavote/pamoja-go/session"
	"github.com/pamojavote/pamoja-go/utils"
)

const clientName = "pamoja"

type Gateway struct {
	client      *resty.Client
	store       session.Store
	baseURL     string
	refreshPath string
	timeout     time.Duration
	serviceName string
	headers     map[string]string
	logger      *zap.Logger

	listenerMu sync.RWMutex
	listener   Listener

	// renewals coalesces concurrent renewal attempts into one in-flight call.
	renewals singleflight.Group
}

// New creates a gateway for the API rooted at baseURL
// (e.g. http://localhost:8000/api) backed by store.
func New(baseURL string, store session.Store, opts ...Option) (*Gateway, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	if store == nil {
		return nil, errors.New("gateway: session store is required")
	}

	g := &Gateway{
		store:       store,
		baseURL:     strings.TrimRight(baseURL, "/"),
		refreshPath: DefaultRefreshPath,
		timeout:     DefaultTimeout,
		serviceName: DefaultServiceName,
		headers:     make(map[string]string),
		logger:      zap.L(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = resty.New()
	}

	g.client.
		SetBaseURL(g.baseURL).
		SetHeader("Accept", "application/json").
		SetHeaders(g.headers).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		OnBeforeRequest(otel.WithTraceHeaders)

	return g, nil
}

// Store exposes the session store the gateway reads credentials from.
func (g *Gateway) Store() session.Store {
	return g.store
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// SetListener replaces the session event listener.
func (g *Gateway) SetListener(listener Listener) {
	g.listenerMu.Lock()
	g.listener = listener
	g.listenerMu.Unlock()
}

func (g *Gateway) Get(ctx context.Context, path string, query map[string]any, out any) error {
	return g.do(ctx, http.MethodGet, path, query, nil, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, query map[string]any, out any) error {
	return g.do(ctx, http.MethodDelete, path, query, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPost, path, nil, body, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPut, path, nil, body, out)
}

func (g *Gateway) Patch(ctx context.Context, path string, body any, out any) error {
	return g.do(ctx, http.MethodPatch, path, nil, body, out)
}

// call is one prepared request; it is immutable so it can be re-sent.
type call struct {
	method string
	path   string
	route  string
	query  url.Values
	body   []byte
}

func (g *Gateway) do(ctx context.Context, method, path string, query map[string]any, body any, out any) error {
	if strings.TrimSpace(path) == "" {
		return ValidationError(method, path, "path is required", nil)
	}

	c := &call{method: method, path: path, route: routeOf(path)}

	values, err := encodeQuery(query)
	if err != nil {
		return ValidationError(method, path, err.Error(), nil)
	}
	c.query = values

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return ValidationError(method, path, "request body is not serializable", map[string]any{"body": err.Error()})
		}
		c.body = raw
	}

	creds, err := g.credentials(ctx)
	if err != nil {
		return err
	}

	token := creds.Access
	retried := false
	for {
		resp, err := g.send(ctx, c, token)
		if err != nil {
			return err
		}
		if resp.StatusCode() != http.StatusUnauthorized || retried {
			return g.result(c, resp, out)
		}

		retried = true
		token, err = g.renew(ctx, c, token)
		if err != nil {
			return err
		}
		g.log(ctx).Debug("retrying call with renewed access token",
			zap.String("method", c.method), zap.String("route", c.route))
	}
}

// credentials loads the stored pair. A pair with only one token is an
// invalid session; it is cleared and the call proceeds anonymously.
func (g *Gateway) credentials(ctx context.Context) (models.Credentials, error) {
	creds, err := g.store.Credentials(ctx)
	if err != nil {
		return models.Credentials{}, err
	}
	if creds.Partial() {
		g.log(ctx).Warn("clearing session with incomplete credentials")
		if err := g.store.Clear(ctx); err != nil {
			return models.Credentials{}, err
		}
		return models.Credentials{}, nil
	}
	return creds, nil
}

func (g *Gateway) send(ctx context.Context, c *call, access string) (*resty.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx, finish := otel.StartHTTPSpan(ctx, g.serviceName, clientName, c.route, c.method, g.baseURL, c.path)
	metrics.IncrementInFlightRequests(ctx, c.method, c.route)
	defer metrics.DecrementInFlightRequests(ctx, c.method, c.route)

	req := g.client.R().SetContext(ctx)
	if access != "" {
		req.SetHeader("Authorization", utils.AuthorizationHeader(access))
	}
	if len(c.query) > 0 {
		req.SetQueryParamsFromValues(c.query)
	}
	if c.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(c.body)
	}

	start := time.Now()
	resp, err := req.Execute(c.method, c.path)
	if err != nil {
		finish(0, err)
		metrics.RecordRequest(ctx, c.method, c.route, 0, time.Since(start))
		g.log(ctx).Debug("api call failed before a response",
			zap.String("method", c.method), zap.String("route", c.route), zap.Error(err))
		return nil, networkError(c.method, c.path, err)
	}

	finish(resp.StatusCode(), nil)
	metrics.RecordRequest(ctx, c.method, c.route, resp.StatusCode(), resp.Time())
	g.log(ctx).Debug("api call",
		zap.String("method", c.method),
		zap.String("route", c.route),
		zap.Int("status", resp.StatusCode()),
		zap.Bool("authenticated", access != ""),
		zap.Duration("duration", resp.Time()),
	)
	return resp, nil
}

func (g *Gateway) result(c *call, resp *resty.Response, out any) error {
	if !resp.IsSuccess() {
		return statusError(c.method, c.path, resp.StatusCode(), resp.Body())
	}
	return decodeInto(c.method, c.path, resp.Body(), out)
}

func decodeInto(method, path string, body []byte, out any) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeError(method, path, err)
	}
	return nil
}

// log returns the gateway logger annotated with the trace of ctx.
func (g *Gateway) log(ctx context.Context) *zap.Logger {
	if traceID := otellogger.GetTraceID(ctx); traceID != "" {
		return g.logger.With(zap.String("trace_id", traceID))
	}
	return g.logger
}
