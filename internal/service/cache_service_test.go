package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chapter-participation-api/internal/repository"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	svc := NewCacheService(repository.NewMemorySessionRepository(), NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	var got map[string]int
	hit, err := svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", map[string]int{"a": 1}, 0))
	hit, err = svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, map[string]int{"a": 1}, got)

	require.NoError(t, svc.Invalidate(ctx, "k"))
	hit, _ = svc.Get(ctx, "k", &got)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.Zero(t, repo.Len())

	var nilSvc *CacheService
	hit, err := nilSvc.Get(ctx, "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}
