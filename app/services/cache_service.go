package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/busvas-search/app/models"
)

// CacheService is the in-memory search cache used when no Redis/MongoDB is configured
type CacheService struct {
	cache      map[string]*models.SearchResult
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		cache:      make(map[string]*models.SearchResult),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
	}
}

func (cs *CacheService) Get(ctx context.Context, key string) (*models.SearchResult, bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	if result, exists := cs.cache[key]; exists {
		if cs.isExpired(key) {
			go cs.deleteExpired(key)
			cs.misses.Add(1)
			return nil, false, nil
		}
		cs.hits.Add(1)
		return result, true, nil
	}

	cs.misses.Add(1)
	return nil, false, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, result *models.SearchResult) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.timestamps[key] = time.Now()
	cs.cache[key] = result
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache = make(map[string]*models.SearchResult)
	cs.timestamps = make(map[string]time.Time)
	return nil
}

func (cs *CacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key, result := range cs.cache {
		if result.DatasetVersion != datasetVersion {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
	return nil
}

func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.cache)
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	cs.mu.RLock()
	active := int64(0)
	for key := range cs.cache {
		if !cs.isExpired(key) {
			active++
		}
	}
	cs.mu.RUnlock()

	hits, misses := cs.hits.Load(), cs.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: active,
	}, nil
}

// CleanupExpired removes expired entries
func (cs *CacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if cs.isExpired(key) {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
}

func (cs *CacheService) isExpired(key string) bool {
	timestamp, exists := cs.timestamps[key]
	if !exists {
		return true
	}
	return time.Since(timestamp) > cs.ttl
}

func (cs *CacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.isExpired(key) {
		delete(cs.cache, key)
		delete(cs.timestamps, key)
	}
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	_, exists := cs.cache[key]
	return exists && !cs.isExpired(key), nil
}

func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	timestamp, exists := cs.timestamps[key]
	if !exists {
		return 0, nil
	}

	remaining := cs.ttl - time.Since(timestamp)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StartCleanupWorker sweeps expired entries every interval until ctx is done
func (cs *CacheService) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

func (cs *CacheService) Close() error {
	return nil
}
