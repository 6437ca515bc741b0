package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const favoritesKeyPrefix = "busvas_favorite_routes_v1:"

// FavoritesKey is the storage key of one owner's list
func FavoritesKey(owner string) string {
	return favoritesKeyPrefix + owner
}

// FavoritesStore persists whole favorite lists per owner. A missing list loads as empty.
type FavoritesStore interface {
	Load(ctx context.Context, owner string) ([]models.FavoriteRoute, error)
	Save(ctx context.Context, owner string, routes []models.FavoriteRoute) error
	Close() error
}

func decodeFavorites(b []byte) ([]models.FavoriteRoute, error) {
	var routes []models.FavoriteRoute
	if err := json.Unmarshal(b, &routes); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return routes, nil
}

// badgerLogger adapts zap to badger.Logger
type badgerLogger struct {
	logger *zap.SugaredLogger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (bl *badgerLogger) Errorf(msg string, items ...any)   { bl.logger.Errorf(msg, items...) }
func (bl *badgerLogger) Warningf(msg string, items ...any) { bl.logger.Warnf(msg, items...) }
func (bl *badgerLogger) Infof(msg string, items ...any)    { bl.logger.Debugf(msg, items...) }
func (bl *badgerLogger) Debugf(msg string, items ...any)   { bl.logger.Debugf(msg, items...) }

// BadgerFavoritesStore keeps favorites in an embedded badger database
type BadgerFavoritesStore struct {
	db *badger.DB
}

// OpenBadgerFavoritesStore opens dir, or an in-memory database when inMemory is set
func OpenBadgerFavoritesStore(dir string, inMemory bool, logger *zap.Logger) (*BadgerFavoritesStore, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = &badgerLogger{logger: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerFavoritesStore{db: db}, nil
}

func (s *BadgerFavoritesStore) Load(ctx context.Context, owner string) ([]models.FavoriteRoute, error) {
	var routes []models.FavoriteRoute
	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(FavoritesKey(owner)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decodeErr error
			routes, decodeErr = decodeFavorites(val)
			return decodeErr
		})
	})
	return routes, err
}

func (s *BadgerFavoritesStore) Save(ctx context.Context, owner string, routes []models.FavoriteRoute) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(FavoritesKey(owner)), data)
	})
}

func (s *BadgerFavoritesStore) Close() error {
	return s.db.Close()
}

// RedisFavoritesStore keeps each list as one JSON string without expiry
type RedisFavoritesStore struct {
	client *redis.Client
}

func NewRedisFavoritesStore(client *redis.Client) *RedisFavoritesStore {
	return &RedisFavoritesStore{client: client}
}

func (s *RedisFavoritesStore) Load(ctx context.Context, owner string) ([]models.FavoriteRoute, error) {
	val, err := s.client.Get(ctx, FavoritesKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get favorites: %w", err)
	}
	return decodeFavorites(val)
}

func (s *RedisFavoritesStore) Save(ctx context.Context, owner string, routes []models.FavoriteRoute) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("encode favorites: %w", err)
	}
	if err := s.client.Set(ctx, FavoritesKey(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set favorites: %w", err)
	}
	return nil
}

// Close leaves the shared client open
func (s *RedisFavoritesStore) Close() error {
	return nil
}

// MongoFavoritesStore keeps one document per owner
type MongoFavoritesStore struct {
	collection *mongo.Collection
}

func NewMongoFavoritesStore(db *mongo.Database) *MongoFavoritesStore {
	return &MongoFavoritesStore{collection: db.Collection("favorites")}
}

func (s *MongoFavoritesStore) Load(ctx context.Context, owner string) ([]models.FavoriteRoute, error) {
	var doc models.FavoritesDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": owner}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	return doc.Routes, nil
}

func (s *MongoFavoritesStore) Save(ctx context.Context, owner string, routes []models.FavoriteRoute) error {
	doc := models.FavoritesDocument{Owner: owner, Routes: routes, UpdatedAt: time.Now()}
	opts := mongooptions.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": owner}, doc, opts); err != nil {
		return fmt.Errorf("upsert favorites: %w", err)
	}
	return nil
}

func (s *MongoFavoritesStore) Close() error {
	return nil
}
