package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	appcontext "github.com/pamojavote/pamoja-go/utils/context"
)

// TokenVerifier validates an access token and returns the id of its user.
type TokenVerifier func(ctx context.Context, token string) (string, error)

// SetSessionInContext resolves the token set by SetTokenInContext into a
// session user. Invalid tokens are ignored, so anonymous endpoints keep
// working with a stale header.
func SetSessionInContext(verify TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, _ := c.Get(TokenKey).(string)
			if token == "" {
				return next(c)
			}

			userID, err := verify(c.Request().Context(), token)
			if err != nil {
				log.Debugf("ignoring invalid token on %s: %v", c.Path(), err)
				return next(c)
			}

			setSessionUser(c, userID)
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a valid access token with a 401 in
// the backend's error shape.
func RequireAuth(verify TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, _ := c.Get(TokenKey).(string)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Authentication credentials were not provided.",
				})
			}

			userID, err := verify(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]any{
					"detail": "Given token not valid for any token type",
					"code":   "token_not_valid",
				})
			}

			setSessionUser(c, userID)
			return next(c)
		}
	}
}

func setSessionUser(c echo.Context, userID string) {
	c.Set(SessionUserKey, userID)
	c.SetRequest(c.Request().WithContext(appcontext.WithSessionUser(c.Request().Context(), userID)))
}
