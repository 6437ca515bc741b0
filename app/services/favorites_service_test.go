package services

import (
	"context"
	"testing"

	"github.com/busvas-search/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFavorites(t *testing.T) *FavoritesService {
	t.Helper()
	store, err := OpenBadgerFavoritesStore("", true, zap.NewNop())
	require.NoError(t, err)
	fs := NewFavoritesService(store, zap.NewNop())
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

var quitoMorning = models.FavoriteRoute{
	Cooperative: "CoopX",
	Origin:      "Riobamba",
	Destination: "Quito",
	Time:        "08:00",
	Price:       "5",
}

func TestFavoritesService_EmptyList(t *testing.T) {
	fs := newTestFavorites(t)

	routes, err := fs.List(context.Background(), "ana")
	require.NoError(t, err)
	assert.NotNil(t, routes)
	assert.Empty(t, routes)
	assert.False(t, fs.IsFavorite(context.Background(), "ana", quitoMorning))
}

func TestFavoritesService_Toggle(t *testing.T) {
	fs := newTestFavorites(t)
	ctx := context.Background()

	routes, added, err := fs.Toggle(ctx, "ana", quitoMorning)
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, routes, 1)
	assert.True(t, routes[0].IsFavorite)
	assert.True(t, fs.IsFavorite(ctx, "ana", quitoMorning))

	// owners are independent
	assert.False(t, fs.IsFavorite(ctx, "luis", quitoMorning))

	// the flag is not part of the identity
	same := quitoMorning
	same.IsFavorite = true
	routes, added, err = fs.Toggle(ctx, "ana", same)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, routes)
}

func TestFavoritesService_EditByIndex(t *testing.T) {
	fs := newTestFavorites(t)
	ctx := context.Background()

	evening := quitoMorning
	evening.Time = "10:30"
	_, _, err := fs.Toggle(ctx, "ana", quitoMorning)
	require.NoError(t, err)
	_, _, err = fs.Toggle(ctx, "ana", evening)
	require.NoError(t, err)

	routes, err := fs.SetFlag(ctx, "ana", 1, false)
	require.NoError(t, err)
	assert.False(t, routes[1].IsFavorite)
	assert.True(t, routes[0].IsFavorite)

	_, err = fs.SetFlag(ctx, "ana", 2, true)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = fs.RemoveAt(ctx, "ana", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	routes, err = fs.RemoveAt(ctx, "ana", 0)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "10:30", routes[0].Time)

	require.NoError(t, fs.Clear(ctx, "ana"))
	routes, err = fs.List(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestFavoritesService_OnChange(t *testing.T) {
	fs := newTestFavorites(t)
	ctx := context.Background()

	var changed []string
	fs.OnChange(func(owner string) { changed = append(changed, owner) })

	_, _, err := fs.Toggle(ctx, "ana", quitoMorning)
	require.NoError(t, err)
	_, err = fs.RemoveAt(ctx, "ana", 5)
	require.Error(t, err)

	assert.Equal(t, []string{"ana"}, changed)
}

func TestBadgerFavoritesStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerFavoritesStore(dir, false, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "ana", []models.FavoriteRoute{quitoMorning}))
	require.NoError(t, store.Close())

	store, err = OpenBadgerFavoritesStore(dir, false, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	routes, err := store.Load(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []models.FavoriteRoute{quitoMorning}, routes)
}

func TestFavoritesKey(t *testing.T) {
	assert.Equal(t, "busvas_favorite_routes_v1:ana", FavoritesKey("ana"))
}
