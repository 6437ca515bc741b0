package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/metrics"
	"go.uber.org/zap"
)

var ErrIndexOutOfRange = errors.New("favorite index out of range")

// FavoritesService edits favorite lists. Every mutation is a load, change and
// save of the whole list, serialized per service.
type FavoritesService struct {
	store     FavoritesStore
	mu        sync.Mutex
	listeners []func(owner string)
	logger    *zap.Logger
}

func NewFavoritesService(store FavoritesStore, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{store: store, logger: logger}
}

// OnChange registers fn to run after an owner's list was saved
func (fs *FavoritesService) OnChange(fn func(owner string)) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.listeners = append(fs.listeners, fn)
}

func (fs *FavoritesService) List(ctx context.Context, owner string) ([]models.FavoriteRoute, error) {
	routes, err := fs.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if routes == nil {
		routes = []models.FavoriteRoute{}
	}
	return routes, nil
}

// IsFavorite reports whether route is in owner's list; store failures count as no
func (fs *FavoritesService) IsFavorite(ctx context.Context, owner string, route models.FavoriteRoute) bool {
	routes, err := fs.store.Load(ctx, owner)
	if err != nil {
		fs.logger.Debug("Favorites unavailable", zap.String("owner", owner), zap.Error(err))
		return false
	}
	for _, r := range routes {
		if r.SameRoute(route) {
			return true
		}
	}
	return false
}

// Toggle removes route when present, otherwise appends it marked as favorite
func (fs *FavoritesService) Toggle(ctx context.Context, owner string, route models.FavoriteRoute) ([]models.FavoriteRoute, bool, error) {
	var added bool
	routes, err := fs.mutate(ctx, owner, func(routes []models.FavoriteRoute) ([]models.FavoriteRoute, error) {
		for i, r := range routes {
			if r.SameRoute(route) {
				return append(routes[:i:i], routes[i+1:]...), nil
			}
		}
		added = true
		route.IsFavorite = true
		return append(routes, route), nil
	})
	if err != nil {
		return nil, false, err
	}
	metrics.IncFavoriteToggle(added)
	return routes, added, nil
}

// SetFlag sets the heart flag of the entry at index
func (fs *FavoritesService) SetFlag(ctx context.Context, owner string, index int, flag bool) ([]models.FavoriteRoute, error) {
	return fs.mutate(ctx, owner, func(routes []models.FavoriteRoute) ([]models.FavoriteRoute, error) {
		if index < 0 || index >= len(routes) {
			return nil, fmt.Errorf("index %d of %d: %w", index, len(routes), ErrIndexOutOfRange)
		}
		routes[index].IsFavorite = flag
		return routes, nil
	})
}

func (fs *FavoritesService) RemoveAt(ctx context.Context, owner string, index int) ([]models.FavoriteRoute, error) {
	return fs.mutate(ctx, owner, func(routes []models.FavoriteRoute) ([]models.FavoriteRoute, error) {
		if index < 0 || index >= len(routes) {
			return nil, fmt.Errorf("index %d of %d: %w", index, len(routes), ErrIndexOutOfRange)
		}
		return append(routes[:index:index], routes[index+1:]...), nil
	})
}

func (fs *FavoritesService) Clear(ctx context.Context, owner string) error {
	_, err := fs.mutate(ctx, owner, func([]models.FavoriteRoute) ([]models.FavoriteRoute, error) {
		return []models.FavoriteRoute{}, nil
	})
	return err
}

func (fs *FavoritesService) mutate(ctx context.Context, owner string, fn func([]models.FavoriteRoute) ([]models.FavoriteRoute, error)) ([]models.FavoriteRoute, error) {
	fs.mu.Lock()
	routes, err := fs.store.Load(ctx, owner)
	if err != nil {
		fs.mu.Unlock()
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	routes, err = fn(routes)
	if err != nil {
		fs.mu.Unlock()
		return nil, err
	}
	if routes == nil {
		routes = []models.FavoriteRoute{}
	}
	if err := fs.store.Save(ctx, owner, routes); err != nil {
		fs.mu.Unlock()
		return nil, fmt.Errorf("save favorites: %w", err)
	}
	listeners := append([]func(string){}, fs.listeners...)
	fs.mu.Unlock()

	for _, fn := range listeners {
		fn(owner)
	}
	return routes, nil
}

func (fs *FavoritesService) Close() error {
	return fs.store.Close()
}
