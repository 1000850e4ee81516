package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTokenFromContext(ctx))
	assert.Empty(t, GetSessionUserFromContext(ctx))

	ctx = WithSessionUser(WithToken(ctx, "eyJ.token"), "u-1")
	assert.Equal(t, "eyJ.token", GetTokenFromContext(ctx))
	assert.Equal(t, "u-1", GetSessionUserFromContext(ctx))
}
