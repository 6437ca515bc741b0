package services

import (
	"context"
	"testing"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAdmin(t *testing.T) (*AdminService, *CacheService) {
	t.Helper()
	catalog := newTestCatalog(nil)
	cache := NewCacheService(time.Minute)
	searches := NewSearchService(catalog, cache, zap.NewNop())
	sessions, err := NewSessionService(catalog, nil, 4, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(sessions.Close)
	return NewAdminService(catalog, searches, cache, sessions, nil, zap.NewNop()), cache
}

func TestAdminService_GetSystemStats(t *testing.T) {
	as, _ := newTestAdmin(t)
	_, err := as.searches.Search(context.Background(), "Riobamba", "Quito", true)
	require.NoError(t, err)
	_, err = as.sessions.Create("")
	require.NoError(t, err)

	stats, err := as.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CatalogStats{Version: "test", Provinces: 4, Terminals: 6, Routes: 15, Synonyms: stats.Catalog.Synonyms}, stats.Catalog)
	assert.Positive(t, stats.Catalog.Synonyms)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, int64(1), stats.Searches)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)
	assert.Contains(t, stats.MemoryUsage, "alloc_mb")
}

func TestAdminService_CacheControl(t *testing.T) {
	as, cache := newTestAdmin(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stale", &models.SearchResult{DatasetVersion: "old"}))
	_, err := as.searches.Search(ctx, "Riobamba", "Quito", true)
	require.NoError(t, err)

	version, err := as.InvalidateCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", version)
	assert.Equal(t, 1, cache.Size())

	warmed, err := as.WarmCache(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 18, warmed)

	require.NoError(t, as.ClearCache(ctx))
	assert.Equal(t, 0, cache.Size())
}

func TestAdminService_MirrorDisabled(t *testing.T) {
	as, _ := newTestAdmin(t)

	_, err := as.SeedMeili(context.Background())
	assert.ErrorIs(t, err, ErrMirrorDisabled)
	_, err = as.SearchMirror("quito", "", 5)
	assert.ErrorIs(t, err, ErrMirrorDisabled)
}
