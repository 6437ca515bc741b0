package services

import (
	"context"
	"testing"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheService_GetSet(t *testing.T) {
	cs := NewCacheService(time.Minute)
	ctx := context.Background()

	_, found, err := cs.Get(ctx, "sha256:a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "sha256:a", &models.SearchResult{Status: models.StatusMatched, DatasetVersion: "v1"}))
	result, found, err := cs.Get(ctx, "sha256:a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.StatusMatched, result.Status)

	ttl, err := cs.GetTTL(ctx, "sha256:a")
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, int64(1), stats.TotalItems)
}

func TestCacheService_Expiry(t *testing.T) {
	cs := NewCacheService(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cs.Set(ctx, "k", &models.SearchResult{}))
	time.Sleep(20 * time.Millisecond)

	_, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	exists, _ := cs.Exists(ctx, "k")
	assert.False(t, exists)

	cs.CleanupExpired()
	assert.Equal(t, 0, cs.Size())
}

func TestCacheService_InvalidateByDatasetVersion(t *testing.T) {
	cs := NewCacheService(time.Minute)
	ctx := context.Background()

	require.NoError(t, cs.Set(ctx, "old", &models.SearchResult{DatasetVersion: "v1"}))
	require.NoError(t, cs.Set(ctx, "new", &models.SearchResult{DatasetVersion: "v2"}))
	require.NoError(t, cs.InvalidateByDatasetVersion(ctx, "v2"))

	assert.Equal(t, 1, cs.Size())
	exists, _ := cs.Exists(ctx, "new")
	assert.True(t, exists)

	require.NoError(t, cs.Clear(ctx))
	assert.Equal(t, 0, cs.Size())
}
