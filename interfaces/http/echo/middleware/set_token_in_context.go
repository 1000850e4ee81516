package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pamojavote/pamoja-go/utils"
	appcontext "github.com/pamojavote/pamoja-go/utils/context"
)

// SetTokenInContext extracts the bearer token from the Authorization header,
// falling back to a cookie of the same name holding the bare token, and
// stores it on the echo context and the request context.
func SetTokenInContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := utils.BearerToken(c.Request().Header.Get(Authorization))
			if token == "" {
				if cookie, err := c.Cookie(Authorization); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return next(c)
			}

			c.Set(TokenKey, token)
			c.SetRequest(c.Request().WithContext(appcontext.WithToken(c.Request().Context(), token)))
			return next(c)
		}
	}
}
