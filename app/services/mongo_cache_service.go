package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/busvas-search/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCacheService is the persistent L2 search cache with an in-process LRU in front
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.SearchResult]
	logger     *zap.Logger

	totalHits atomic.Int64
	totalMiss atomic.Int64
	l1Hits    atomic.Int64
	l1Miss    atomic.Int64
	mongoHits atomic.Int64
	mongoMiss atomic.Int64
}

func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.SearchResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}

	collection := db.Collection("search_cache")

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{bson.E{Key: "dataset_version", Value: 1}},
		},
		{
			Keys: bson.D{bson.E{Key: "access_count", Value: -1}},
		},
		{
			Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Cannot create search_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Get tries the LRU, then MongoDB. Keys are search fingerprints.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.SearchResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.totalHits.Add(1)
		return result, true, nil
	}
	mcs.l1Miss.Add(1)

	var entry models.SearchCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.mongoMiss.Add(1)
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query search_cache: %w", err)
	}

	mcs.mongoHits.Add(1)
	mcs.totalHits.Add(1)

	go mcs.updateAccessStats(entry.ID)

	mcs.l1Cache.Add(key, &entry.Result)
	mcs.logger.Debug("MongoDB cache hit", zap.String("fingerprint", key))
	return &entry.Result, true, nil
}

func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.SearchResult) error {
	mcs.l1Cache.Add(key, result)

	entry := models.NewSearchCache(key, *result)
	opts := options.Replace().SetUpsert(true)

	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": key}, entry, opts); err != nil {
		mcs.logger.Error("MongoDB cache upsert failed", zap.Error(err), zap.String("fingerprint", key))
		return fmt.Errorf("upsert search_cache: %w", err)
	}

	mcs.logger.Debug("Stored in MongoDB cache",
		zap.String("fingerprint", key),
		zap.Int("matches", entry.MatchCount))
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": key}); err != nil {
		return fmt.Errorf("delete from search_cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear search_cache: %w", err)
	}

	for _, c := range []*atomic.Int64{&mcs.totalHits, &mcs.totalMiss, &mcs.l1Hits, &mcs.l1Miss, &mcs.mongoHits, &mcs.mongoMiss} {
		c.Store(0)
	}
	return nil
}

func (mcs *MongoCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	mcs.l1Cache.Purge()

	filter := bson.M{"dataset_version": bson.M{"$ne": datasetVersion}}
	result, err := mcs.collection.DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("invalidate search_cache: %w", err)
	}

	mcs.logger.Info("Invalidated MongoDB cache",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count search_cache: %w", err)
	}

	hits, misses := mcs.totalHits.Load(), mcs.totalMiss.Load()
	hitRate := float64(0)
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: mongoCount,
	}, nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": key})
	if err != nil {
		return false, fmt.Errorf("check search_cache: %w", err)
	}
	return count > 0, nil
}

// GetTTL is always 0: persisted results only go away on invalidation
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op, the client belongs to the caller
func (mcs *MongoCacheService) Close() error {
	return nil
}

func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Cannot update cache access stats", zap.Error(err))
	}
}

func (mcs *MongoCacheService) GetL1Stats() map[string]interface{} {
	return map[string]interface{}{
		"l1_size":    mcs.l1Cache.Len(),
		"l1_hits":    mcs.l1Hits.Load(),
		"l1_miss":    mcs.l1Miss.Load(),
		"mongo_hits": mcs.mongoHits.Load(),
		"mongo_miss": mcs.mongoMiss.Load(),
	}
}

// WarmUp loads the most accessed results into the LRU
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warm up search_cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.SearchCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Skipping undecodable cache entry", zap.Error(err))
			continue
		}
		result := entry.Result
		mcs.l1Cache.Add(entry.Fingerprint, &result)
		count++
	}

	mcs.logger.Info("Cache warm up done",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))
	return cursor.Err()
}
