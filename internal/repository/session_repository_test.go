package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

type sessionValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemorySessionRepositoryRoundTrip(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "a", sessionValue{Name: "Ada", Count: 2}, time.Minute))

	var got sessionValue
	require.NoError(t, repo.Get(ctx, "a", &got))
	assert.Equal(t, sessionValue{Name: "Ada", Count: 2}, got)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Get(ctx, "a", &got), appErrors.ErrCacheMiss)
}

func TestMemorySessionRepositoryStoresCopies(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()
	value := &sessionValue{Name: "Ada"}

	require.NoError(t, repo.Set(ctx, "a", value, 0))
	value.Name = "changed"

	var got sessionValue
	require.NoError(t, repo.Get(ctx, "a", &got))
	assert.Equal(t, "Ada", got.Name)
}

func TestMemorySessionRepositoryExpiresEntries(t *testing.T) {
	repo := NewMemorySessionRepository()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short", sessionValue{}, time.Minute))
	require.NoError(t, repo.Set(ctx, "forever", sessionValue{}, 0))
	assert.Equal(t, 2, repo.Len())

	now = now.Add(time.Minute)

	var got sessionValue
	assert.ErrorIs(t, repo.Get(ctx, "short", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Get(ctx, "forever", &got))
	assert.Equal(t, 1, repo.Len())
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "composition:", nil)
	ctx := context.Background()

	var got sessionValue
	assert.ErrorIs(t, repo.Get(ctx, "a", &got), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "a", got, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "a"))
}
