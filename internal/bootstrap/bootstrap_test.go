package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/services"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	saved := config.C
	t.Cleanup(func() { config.C = saved })

	LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "8080", viper.GetString("app.port"))
	assert.Equal(t, "memory", viper.GetString("cache.backend"))
	assert.Equal(t, 1000, viper.GetInt("sessions.max"))
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	saved := config.C
	t.Cleanup(func() { config.C = saved })

	dir := t.TempDir()
	searchFile := filepath.Join(dir, "search.yaml")
	require.NoError(t, os.WriteFile(searchFile, []byte("max_cooperatives: 3\n"), 0o644))
	appFile := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(appFile, []byte("app:\n  port: \"9090\"\nsearch:\n  config: "+searchFile+"\n"), 0o644))
	t.Setenv("CACHE_BACKEND", "redis")

	LoadConfig(appFile)

	assert.Equal(t, "9090", viper.GetString("app.port"))
	assert.Equal(t, "redis", viper.GetString("cache.backend"))
	assert.Equal(t, 3, config.C.MaxCooperatives)
}

func TestOpenCache(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	in := NewInfra(zap.NewNop())
	defer in.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	viper.Set("cache.backend", "memory")
	viper.Set("cache.ttl", "1m")
	cache, err := OpenCache(ctx, in)
	require.NoError(t, err)
	assert.IsType(t, &services.CacheService{}, cache)

	viper.Set("cache.backend", "memcached")
	_, err = OpenCache(ctx, in)
	assert.Error(t, err)
}

func TestOpenFavorites(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	saved := config.C
	t.Cleanup(func() { config.C = saved })
	in := NewInfra(zap.NewNop())
	defer in.Close()

	config.C.FavoritesBackend = "badger"
	viper.Set("favorites.badger_dir", t.TempDir())
	store, err := OpenFavorites(context.Background(), in)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	config.C.FavoritesBackend = "sqlite"
	_, err = OpenFavorites(context.Background(), in)
	assert.Error(t, err)
}

func TestOpenMirrorDisabled(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	mirror, err := OpenMirror(zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, mirror)
}

func TestNewCatalog(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(`{"provincias":[{"id":"loja","nombre":"Loja","terminales":[{"id":"loja-t","nombre":"Terminal Loja","cooperativas":[]}]}]}`), 0o644))
	viper.Set("data.root", dir)
	viper.Set("data.dataset", "data.json")
	viper.Set("data.timeout", "1s")

	catalog := NewCatalog(zap.NewNop())
	require.NoError(t, catalog.Load(context.Background()))
	assert.NotEmpty(t, catalog.Version())
}
