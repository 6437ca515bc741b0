package services

import (
	"context"
	"time"

	"github.com/busvas-search/app/models"
)

// CacheStats are the counters reported by every cache layer
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores search results by fingerprint
type ICacheService interface {
	Get(ctx context.Context, key string) (*models.SearchResult, bool, error)

	Set(ctx context.Context, key string, result *models.SearchResult) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	// InvalidateByDatasetVersion drops every entry computed against another dataset version
	InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key, 0 when unknown or unbounded
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	Close() error
}
