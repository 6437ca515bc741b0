package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/busvas-search/app/models"
	"go.uber.org/zap"
)

// HybridCacheService chains Redis (L1) in front of MongoDB (L2)
type HybridCacheService struct {
	redisCache *RedisCacheService
	mongoCache *MongoCacheService
	logger     *zap.Logger
}

func NewHybridCacheService(redisCache *RedisCacheService, mongoCache *MongoCacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		redisCache: redisCache,
		mongoCache: mongoCache,
		logger:     logger,
	}
}

func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.SearchResult, bool, error) {
	result, found, err := hcs.redisCache.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Redis cache failed, falling back to MongoDB", zap.Error(err))
	} else if found {
		return result, true, nil
	}

	result, found, err = hcs.mongoCache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	// back-fill L1
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.redisCache.Set(bgCtx, key, result); err != nil {
			hcs.logger.Warn("Sync MongoDB->Redis failed", zap.Error(err), zap.String("key", key))
		}
	}()

	hcs.logger.Debug("L2 cache hit (MongoDB)", zap.String("key", key))
	return result, true, nil
}

// both runs fn on both layers concurrently and joins their errors
func (hcs *HybridCacheService) both(fn func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.redisCache, hcs.mongoCache} {
		go func(c ICacheService) {
			errCh <- fn(c)
		}(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.SearchResult) error {
	if err := hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) }); err != nil {
		hcs.logger.Warn("Hybrid cache set incomplete", zap.Error(err))
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	if err := hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	hcs.logger.Info("Cleared hybrid cache (Redis + MongoDB)")
	return nil
}

func (hcs *HybridCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	err := hcs.both(func(c ICacheService) error { return c.InvalidateByDatasetVersion(ctx, datasetVersion) })
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	hcs.logger.Info("Invalidated hybrid cache", zap.String("dataset_version", datasetVersion))
	return nil
}

// GetStats sums both layers, or reports whichever one answered
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	redisStats, redisErr := hcs.redisCache.GetStats(ctx)
	mongoStats, mongoErr := hcs.mongoCache.GetStats(ctx)

	switch {
	case redisErr != nil && mongoErr != nil:
		return nil, fmt.Errorf("cache stats: %w", errors.Join(redisErr, mongoErr))
	case redisErr != nil:
		return mongoStats, nil
	case mongoErr != nil:
		return redisStats, nil
	}

	combined := &CacheStats{
		TotalHits:  redisStats.TotalHits + mongoStats.TotalHits,
		TotalMiss:  redisStats.TotalMiss + mongoStats.TotalMiss,
		TotalItems: redisStats.TotalItems + mongoStats.TotalItems,
	}
	if total := combined.TotalHits + combined.TotalMiss; total > 0 {
		combined.HitRate = float64(combined.TotalHits) / float64(total)
	}
	return combined, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.redisCache.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Redis exists failed, falling back to MongoDB", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.mongoCache.Exists(ctx, key)
}

func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.redisCache.GetTTL(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}

// WarmUpFromMongoDB fills the MongoDB layer's LRU with the most accessed results
func (hcs *HybridCacheService) WarmUpFromMongoDB(ctx context.Context, limit int) error {
	return hcs.mongoCache.WarmUp(ctx, limit)
}
