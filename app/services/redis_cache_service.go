package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCacheService is the L1 search cache
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService connects and pings Redis
func NewRedisCacheService(redisURL string, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err = client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return NewRedisCacheServiceWithClient(client, logger), nil
}

func NewRedisCacheServiceWithClient(client *redis.Client, logger *zap.Logger) *RedisCacheService {
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: "busvas:search:",
		ttl:    6 * time.Hour,
	}
}

func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.SearchResult, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var result models.SearchResult
	if err := json.Unmarshal(val, &result); err != nil {
		rcs.logger.Error("Cached search result is corrupt", zap.Error(err))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &result, true, nil
}

func (rcs *RedisCacheService) Set(ctx context.Context, key string, result *models.SearchResult) error {
	cacheKey := rcs.prefix + key

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal search result: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}

	rcs.logger.Debug("Stored in Redis cache", zap.String("key", key))
	return nil
}

func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	cacheKey := rcs.prefix + key

	if err := rcs.client.Del(ctx, cacheKey).Err(); err != nil {
		rcs.logger.Error("Redis delete failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

// Clear deletes every key under the prefix
func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	keys, err := rcs.keys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if len(keys) > 0 {
		if err := rcs.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
	}

	rcs.logger.Info("Cleared Redis cache", zap.Int("keys_deleted", len(keys)))
	return nil
}

func (rcs *RedisCacheService) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// InvalidateByDatasetVersion clears everything: the version is folded into the
// fingerprint, not the key layout.
func (rcs *RedisCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	return rcs.Clear(ctx)
}

func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	totalItems := int64(0)
	if keys, err := rcs.keys(ctx); err == nil {
		totalItems = int64(len(keys))
	} else {
		rcs.logger.Warn("Cannot count Redis keys", zap.Error(err))
	}

	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: totalItems,
	}, nil
}

func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

func (rcs *RedisCacheService) SetTTL(ttl time.Duration) {
	rcs.ttl = ttl
}

// GetClient exposes the client so other stores can share the connection
func (rcs *RedisCacheService) GetClient() *redis.Client {
	return rcs.client
}
