// Package bootstrap holds the process wiring shared by the api, worker and
// cli binaries: configuration, logging and the optional backing stores.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/external"
	"github.com/busvas-search/internal/search"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// LoadConfig reads config/app.yaml and the search tunables. Missing files
// fall back to defaults.
func LoadConfig(file string) {
	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("app")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("data.root", "./data")
	viper.SetDefault("data.dataset", "data.json")
	viper.SetDefault("data.cooperatives", "coop.json")
	viper.SetDefault("data.synonyms", "sinonimos.json")
	viper.SetDefault("data.timeout", "10s")
	viper.SetDefault("search.config", "config/search.yaml")
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.ttl", "6h")
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "busvas")
	viper.SetDefault("meilisearch.url", "")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("meilisearch.index", "routes")
	viper.SetDefault("favorites.badger_dir", "./data/favorites")
	viper.SetDefault("sessions.max", 1000)
	viper.SetDefault("ratelimit.requests_per_minute", 120)
	viper.SetDefault("ratelimit.burst", 30)
	viper.SetDefault("worker.reload_interval", "30m")
	viper.SetDefault("worker.warm_workers", 8)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}

	if path := viper.GetString("search.config"); path != "" {
		if err := config.Load(path); err != nil {
			log.Printf("Warning: Cannot read search config %s: %v", path, err)
		}
	}
}

// InitLogger builds a production logger when APP_ENV is production
func InitLogger() *zap.Logger {
	env := GetEnv("APP_ENV", viper.GetString("app.env"))

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// Infra connects lazily to MongoDB and Redis and closes whatever was opened
type Infra struct {
	logger *zap.Logger
	mongo  *mongo.Database
	redis  *redis.Client
}

func NewInfra(logger *zap.Logger) *Infra {
	return &Infra{logger: logger}
}

func (in *Infra) Mongo(ctx context.Context) (*mongo.Database, error) {
	if in.mongo != nil {
		return in.mongo, nil
	}
	url := viper.GetString("mongo.url")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	in.mongo = client.Database(viper.GetString("mongo.database"))
	in.logger.Info("Connected to MongoDB", zap.String("database", in.mongo.Name()))
	return in.mongo, nil
}

func (in *Infra) Redis(ctx context.Context) (*redis.Client, error) {
	if in.redis != nil {
		return in.redis, nil
	}
	opts, err := redis.ParseURL(viper.GetString("redis.url"))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	in.redis = client
	in.logger.Info("Connected to Redis", zap.String("addr", opts.Addr))
	return in.redis, nil
}

func (in *Infra) Close() {
	if in.redis != nil {
		if err := in.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			in.logger.Error("Error closing Redis", zap.Error(err))
		}
	}
	if in.mongo != nil {
		if err := in.mongo.Client().Disconnect(context.Background()); err != nil {
			in.logger.Error("Error disconnecting MongoDB", zap.Error(err))
		}
	}
}

// NewCatalog builds the catalog over the configured data sources
func NewCatalog(logger *zap.Logger) *services.CatalogService {
	loader := external.NewResourceLoader(viper.GetString("data.root"), viper.GetDuration("data.timeout"), logger)
	return services.NewCatalogService(loader, services.CatalogSources{
		Dataset:      viper.GetString("data.dataset"),
		Cooperatives: viper.GetString("data.cooperatives"),
		Synonyms:     viper.GetString("data.synonyms"),
	}, logger)
}

// OpenCache returns the search cache selected by cache.backend:
// memory, redis, mongo or hybrid (Redis in front of MongoDB).
func OpenCache(ctx context.Context, in *Infra) (services.ICacheService, error) {
	ttl := viper.GetDuration("cache.ttl")
	l1Size := viper.GetInt("cache.l1_size")

	switch backend := viper.GetString("cache.backend"); backend {
	case "memory", "":
		cache := services.NewCacheService(ttl)
		cache.StartCleanupWorker(ctx, 10*time.Minute)
		return cache, nil
	case "redis":
		client, err := in.Redis(ctx)
		if err != nil {
			return nil, err
		}
		cache := services.NewRedisCacheServiceWithClient(client, in.logger)
		cache.SetTTL(ttl)
		return cache, nil
	case "mongo":
		db, err := in.Mongo(ctx)
		if err != nil {
			return nil, err
		}
		return services.NewMongoCacheService(db, l1Size, in.logger)
	case "hybrid":
		client, err := in.Redis(ctx)
		if err != nil {
			return nil, err
		}
		db, err := in.Mongo(ctx)
		if err != nil {
			return nil, err
		}
		redisCache := services.NewRedisCacheServiceWithClient(client, in.logger)
		redisCache.SetTTL(ttl)
		mongoCache, err := services.NewMongoCacheService(db, l1Size, in.logger)
		if err != nil {
			return nil, err
		}
		hybrid := services.NewHybridCacheService(redisCache, mongoCache, in.logger)
		if err := hybrid.WarmUpFromMongoDB(ctx, l1Size/2); err != nil {
			in.logger.Warn("Failed to warm up cache", zap.Error(err))
		}
		return hybrid, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// OpenFavorites returns the favorites store selected by the search config
func OpenFavorites(ctx context.Context, in *Infra) (services.FavoritesStore, error) {
	switch backend := config.C.FavoritesBackend; backend {
	case "badger", "":
		return services.OpenBadgerFavoritesStore(viper.GetString("favorites.badger_dir"), false, in.logger)
	case "memory":
		return services.OpenBadgerFavoritesStore("", true, in.logger)
	case "redis":
		client, err := in.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return services.NewRedisFavoritesStore(client), nil
	case "mongo":
		db, err := in.Mongo(ctx)
		if err != nil {
			return nil, err
		}
		return services.NewMongoFavoritesStore(db), nil
	default:
		return nil, fmt.Errorf("unknown favorites backend %q", backend)
	}
}

// OpenMirror connects the Meilisearch mirror; nil when no url is configured
func OpenMirror(logger *zap.Logger) (*search.MeiliRouteMirror, error) {
	host := viper.GetString("meilisearch.url")
	if host == "" {
		return nil, nil
	}
	return search.NewMeiliRouteMirror(search.SearchConfig{
		Host:      host,
		APIKey:    viper.GetString("meilisearch.master_key"),
		IndexName: viper.GetString("meilisearch.index"),
		Timeout:   30 * time.Second,
	}, logger)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
