package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

func TestCacheRepositoryFallbackRoundTrip(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}

	require.NoError(t, repo.Set(ctx, "att:user", payload{Value: "cached"}, time.Minute))

	var got payload
	require.NoError(t, repo.Get(ctx, "att:user", &got))
	assert.Equal(t, "cached", got.Value)
}

func TestCacheRepositoryMissOnUnknownKey(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())

	var dest map[string]string
	err := repo.Get(context.Background(), "absent", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryFallbackExpiry(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	now := time.Now()
	repo.fallback.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, "att:user", "value", 30*time.Minute))

	var got string
	require.NoError(t, repo.Get(ctx, "att:user", &got))

	now = now.Add(31 * time.Minute)
	err := repo.Get(ctx, "att:user", &got)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryLastWriteWins(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "att:user", "first", time.Minute))
	require.NoError(t, repo.Set(ctx, "att:user", "second", time.Minute))

	var got string
	require.NoError(t, repo.Get(ctx, "att:user", &got))
	assert.Equal(t, "second", got)
}

func TestCacheRepositoryDelete(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "sess:1", "value", time.Minute))
	require.NoError(t, repo.Delete(ctx, "sess:1"))

	var got string
	assert.ErrorIs(t, repo.Get(ctx, "sess:1", &got), appErrors.ErrCacheMiss)
}
