package context

import (
	"context"
)

func WithSessionUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, sessionUserKey, userID)
}

// GetSessionUserFromContext returns the id of the authenticated user, or ""
// for anonymous requests.
func GetSessionUserFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(sessionUserKey).(string)
	return userID
}
