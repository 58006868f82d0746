package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tutor-schedule-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "tutor-schedule:import:grid:abc:0", &dest)
	require.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "key", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "tutor-schedule:schedule:week:*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryWrapsTransportErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	repo := NewCacheRepository(client, nil)
	defer repo.Close() //nolint:errcheck
	ctx := context.Background()

	var dest []string
	err := repo.Get(ctx, "grid", &dest)
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.Contains(t, err.Error(), "redis get grid")

	err = repo.Set(ctx, "grid", []string{"x"}, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set grid")

	err = repo.DeleteByPattern(ctx, "week:*")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis scan week:*")

	err = repo.Set(ctx, "bad", func() {}, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode cache entry bad")
}
