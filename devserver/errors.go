package devserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	otellogger "github.com/pamojavote/pamoja-go/otel/logger"
)

// apiError is a handler failure rendered verbatim as the response body.
type apiError struct {
	status int
	body   any
}

func (e *apiError) Error() string {
	return http.StatusText(e.status)
}

func newAPIError(status int, body any) *apiError {
	return &apiError{status: status, body: body}
}

// errorf answers with {"error": msg}, the shape of membership and invite
// failures.
func errorf(status int, msg string) *apiError {
	return newAPIError(status, map[string]string{"error": msg})
}

func detail(status int, msg string) *apiError {
	return newAPIError(status, map[string]string{"detail": msg})
}

func notFound() *apiError {
	return detail(http.StatusNotFound, "Not found.")
}

func forbidden() *apiError {
	return detail(http.StatusForbidden, "You do not have permission to perform this action.")
}

// validationError renders as the field -> messages body of a 400.
type validationError struct {
	fields map[string][]string
}

func (e *validationError) Error() string {
	return "invalid request body"
}

func fieldErrors(fields map[string][]string) *validationError {
	return &validationError{fields: fields}
}

func requiredField(name string) *validationError {
	return fieldErrors(map[string][]string{name: {"This field is required."}})
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := http.StatusInternalServerError, any(map[string]string{"detail": "A server error occurred."})

	var (
		apiErr  *apiError
		invalid *validationError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &apiErr):
		status, body = apiErr.status, apiErr.body
	case errors.As(err, &invalid):
		status, body = http.StatusBadRequest, invalid.fields
	case errors.As(err, &httpErr):
		status = httpErr.Code
		switch status {
		case http.StatusNotFound:
			body = map[string]string{"detail": "Not found."}
		case http.StatusMethodNotAllowed:
			body = map[string]string{"detail": "Method \"" + c.Request().Method + "\" not allowed."}
		default:
			msg, ok := httpErr.Message.(string)
			if !ok {
				msg = http.StatusText(status)
			}
			body = map[string]string{"detail": msg}
		}
	default:
		otellogger.ErrorCtx(c.Request().Context(), "unhandled devserver error", err, zap.String("path", c.Path()))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		otellogger.WarnCtx(c.Request().Context(), "failed to write error response", zap.Error(err))
	}
}
