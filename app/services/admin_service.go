package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/busvas-search/internal/search"
	"go.uber.org/zap"
)

var ErrMirrorDisabled = errors.New("meilisearch mirror is not configured")

// AdminService groups the operational actions: stats, cache control, reloads, mirror seeding
type AdminService struct {
	catalog   *CatalogService
	searches  *SearchService
	cache     ICacheService
	sessions  *SessionService
	mirror    *search.MeiliRouteMirror
	logger    *zap.Logger
	startTime time.Time
}

type CatalogStats struct {
	Version   string `json:"version"`
	Provinces int    `json:"provinces"`
	Terminals int    `json:"terminals"`
	Routes    int    `json:"routes"`
	Synonyms  int    `json:"synonyms"`
}

type SystemStats struct {
	Uptime      string                 `json:"uptime"`
	Goroutines  int                    `json:"goroutines"`
	MemoryUsage map[string]interface{} `json:"memory_usage"`
	Catalog     CatalogStats           `json:"catalog"`
	Cache       *CacheStats            `json:"cache,omitempty"`
	Sessions    int                    `json:"sessions"`
	Searches    interface{}            `json:"searches"`
}

type SeedResult struct {
	Documents        int   `json:"documents"`
	SynonymGroups    int   `json:"synonym_groups"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type ReloadResult struct {
	PreviousVersion string `json:"previous_version"`
	Version         string `json:"version"`
}

// NewAdminService accepts nil cache, sessions and mirror
func NewAdminService(catalog *CatalogService, searches *SearchService, cache ICacheService, sessions *SessionService, mirror *search.MeiliRouteMirror, logger *zap.Logger) *AdminService {
	return &AdminService{
		catalog:   catalog,
		searches:  searches,
		cache:     cache,
		sessions:  sessions,
		mirror:    mirror,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Uptime:     time.Since(as.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
		Catalog: as.catalogStats(),
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Cache stats unavailable", zap.Error(err))
		} else {
			stats.Cache = cacheStats
		}
	}
	if as.sessions != nil {
		stats.Sessions = as.sessions.Len()
	}
	if as.searches != nil {
		stats.Searches = as.searches.GetStats()["searches"]
	}
	return stats, nil
}

func (as *AdminService) catalogStats() CatalogStats {
	idx := as.catalog.Index()
	if idx == nil {
		return CatalogStats{}
	}
	return CatalogStats{
		Version:   idx.Version(),
		Provinces: len(idx.Dataset().Provinces),
		Terminals: len(idx.Terminals()),
		Routes:    idx.Len(),
		Synonyms:  idx.Normalizer().Synonyms().Len(),
	}
}

// InvalidateCache drops cached results of every other dataset version
func (as *AdminService) InvalidateCache(ctx context.Context) (string, error) {
	if as.cache == nil {
		return "", nil
	}
	version := as.catalog.Version()
	if err := as.cache.InvalidateByDatasetVersion(ctx, version); err != nil {
		return "", fmt.Errorf("invalidate cache: %w", err)
	}
	return version, nil
}

func (as *AdminService) ClearCache(ctx context.Context) error {
	if as.cache == nil {
		return nil
	}
	return as.cache.Clear(ctx)
}

func (as *AdminService) WarmCache(ctx context.Context, poolSize int) (int, error) {
	return as.searches.WarmUp(ctx, poolSize)
}

// Reload fetches the published data again and invalidates stale cache entries
func (as *AdminService) Reload(ctx context.Context) (*ReloadResult, error) {
	previous := as.catalog.Version()
	if err := as.catalog.Load(ctx); err != nil {
		return nil, err
	}
	result := &ReloadResult{PreviousVersion: previous, Version: as.catalog.Version()}
	if result.Version != previous {
		if _, err := as.InvalidateCache(ctx); err != nil {
			as.logger.Warn("Stale cache entries kept", zap.Error(err))
		}
	}
	as.logger.Info("Catalog reloaded",
		zap.String("previous_version", previous),
		zap.String("version", result.Version))
	return result, nil
}

// SeedMeili configures the mirror index and pushes routes and synonyms
func (as *AdminService) SeedMeili(ctx context.Context) (*SeedResult, error) {
	if as.mirror == nil {
		return nil, ErrMirrorDisabled
	}
	idx := as.catalog.Index()
	if idx == nil {
		return nil, ErrDatasetEmpty
	}
	start := time.Now()

	if err := as.mirror.BuildIndexes(); err != nil {
		return nil, err
	}
	docs, err := as.mirror.SeedRoutes(idx)
	if err != nil {
		return nil, err
	}
	table := idx.Normalizer().Synonyms()
	if err := as.mirror.ApplySynonyms(table); err != nil {
		return nil, err
	}

	return &SeedResult{
		Documents:        docs,
		SynonymGroups:    len(table.MeiliSynonyms()),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// SearchMirror queries the Meilisearch copy of the routes
func (as *AdminService) SearchMirror(query, terminalID string, limit int) ([]search.RouteHit, error) {
	if as.mirror == nil {
		return nil, ErrMirrorDisabled
	}
	return as.mirror.SearchRoutes(query, terminalID, limit)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
