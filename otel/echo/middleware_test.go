package echo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/pamojavote/pamoja-go/interfaces/http/echo/middleware"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func newServer(skipper func(echo.Context) bool) *echo.Echo {
	e := echo.New()
	e.Use(middleware.SetTokenInContext())
	e.Use(Middleware("pamoja-devserver", skipper))
	e.GET("/api/squads/:id/", func(c echo.Context) error {
		c.Set(middleware.SessionUserKey, "u-1")
		return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})
	e.GET("/api/boom/", func(c echo.Context) error {
		return errors.New("boom")
	})
	e.GET("/health/", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	return e
}

func TestMiddlewareAnnotatesSpan(t *testing.T) {
	recorder := setupRecorder(t)
	e := newServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/squads/42/", nil)
	req.Header.Set(middleware.Authorization, "Bearer token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := attrs(spans[0])
	assert.Equal(t, "/api/squads/:id/", got["http.route"])
	assert.Equal(t, "200", got["http.status_code"])
	assert.Equal(t, "u-1", got["enduser.id"])
	assert.Equal(t, "true", got["enduser.token_present"])
}

func TestMiddlewareRecordsHandlerError(t *testing.T) {
	recorder := setupRecorder(t)
	e := newServer(nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := attrs(spans[0])
	assert.Equal(t, "boom", got["error.message"])
	assert.NotContains(t, got, "enduser.id")
	assert.NotContains(t, got, "enduser.token_present")
}

func TestMiddlewareSkipper(t *testing.T) {
	recorder := setupRecorder(t)
	e := newServer(func(c echo.Context) bool { return c.Path() == "/health/" })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, recorder.Ended())
}
