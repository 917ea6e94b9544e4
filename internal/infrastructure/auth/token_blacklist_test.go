package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescrm/backend/internal/infrastructure/auth"
)

func TestInMemoryTokenBlacklist_JTI(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-1", time.Hour))
	ok, err := blacklist.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = blacklist.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-short", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	ok, err = blacklist.IsBlacklisted(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blacklist.AddToBlacklist(ctx, "jti-expired", 0))
	ok, err = blacklist.IsBlacklisted(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInMemoryTokenBlacklist_UserInvalidation(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	ok, err := blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blacklist.AddUserTokensToBlacklist(ctx, "user-1", time.Hour))

	ok, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, ok, "tokens issued before invalidation are revoked")

	ok, err = blacklist.IsUserTokenInvalidated(ctx, "user-1", time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "tokens issued afterwards stay valid")

	ok, err = blacklist.IsUserTokenInvalidated(ctx, "user-2", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}
