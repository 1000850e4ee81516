package echo

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pamojavote/pamoja-go/interfaces/http/echo/middleware"
)

// Middleware instruments requests with otelecho and annotates the server
// span with the route, the response status and whether the caller was
// authenticated. skipper may be nil.
func Middleware(serviceName string, skipper func(c echo.Context) bool) echo.MiddlewareFunc {
	var opts []otelecho.Option
	if skipper != nil {
		opts = append(opts, otelecho.WithSkipper(skipper))
	}
	base := otelecho.Middleware(serviceName, opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		annotated := func(c echo.Context) error {
			err := next(c)

			span := trace.SpanFromContext(c.Request().Context())
			if !span.IsRecording() {
				return err
			}
			span.SetAttributes(
				attribute.String("http.route", c.Path()),
				attribute.Int("http.status_code", c.Response().Status),
			)
			if userID, ok := c.Get(middleware.SessionUserKey).(string); ok && userID != "" {
				span.SetAttributes(attribute.String("enduser.id", userID))
			}
			if _, ok := c.Get(middleware.TokenKey).(string); ok {
				span.SetAttributes(attribute.Bool("enduser.token_present", true))
			}
			if err != nil {
				span.SetAttributes(attribute.String("error.message", err.Error()))
			}
			return err
		}
		return base(annotated)
	}
}
