package context

import (
	"context"
)

type contextKey string

const (
	tokenKey       contextKey = "requestToken"
	sessionUserKey contextKey = "sessionUser"
)

func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// GetTokenFromContext returns the bearer token of the request, or "".
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
