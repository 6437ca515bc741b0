package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/external"
	"github.com/busvas-search/internal/normalizer"
	"github.com/busvas-search/internal/search"
	"github.com/busvas-search/internal/search/searchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(info map[string]models.CooperativeInfo) *CatalogService {
	return NewCatalogServiceFromIndex(searchtest.Index(), info, zap.NewNop())
}

func TestCatalogService_NotLoaded(t *testing.T) {
	cs := NewCatalogService(nil, CatalogSources{}, zap.NewNop())

	_, err := cs.Provinces()
	assert.ErrorIs(t, err, ErrDatasetEmpty)
	_, err = cs.Featured()
	assert.ErrorIs(t, err, ErrDatasetEmpty)
	assert.Empty(t, cs.Suggest("quito", 5))
	assert.Equal(t, "", cs.Version())
}

func TestCatalogService_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("data.json", `{"provincias":[{"id":"loja","nombre":"Loja","terminales":[
		{"id":"loja-t","nombre":"Terminal Loja","cooperativas":[
			{"id":"viajeros","nombre":"Viajeros","rutas":[{"destino":"Cuenca","horarios":["07:00"],"costo":"7.50"}]}
		]}]}]}`)
	write("coop.json", `{"viajeros":{"nombre":"Viajeros","rating_global":{"puntualidad":4}}}`)
	write("sinonimos.json", `[{"canonical":"loja","variants":["ciudad de loja"]}]`)

	loader := external.NewResourceLoader(dir, time.Second, zap.NewNop())
	cs := NewCatalogService(loader, CatalogSources{
		Dataset:      "data.json",
		Cooperatives: "coop.json",
		Synonyms:     "sinonimos.json",
	}, zap.NewNop())

	require.NoError(t, cs.Load(context.Background()))
	assert.NotEmpty(t, cs.Version())

	coops, err := cs.Cooperatives("loja-t")
	require.NoError(t, err)
	require.Len(t, coops, 1)
	assert.Equal(t, 4.0, coops[0].Rating)
	require.NotNil(t, coops[0].Info)

	routes, err := cs.RoutesTo("cuenca")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "$7.50", routes[0].Price)
}

func TestCatalogService_LoadKeepsPreviousIndexOnFailure(t *testing.T) {
	loader := external.NewResourceLoader(t.TempDir(), time.Second, zap.NewNop())
	cs := NewCatalogService(loader, CatalogSources{Dataset: "missing.json"}, zap.NewNop())
	cs.swap(searchtest.Index(), nil)

	assert.Error(t, cs.Load(context.Background()))
	assert.Equal(t, "test", cs.Version())
}

func TestCatalogService_Browse(t *testing.T) {
	cs := newTestCatalog(map[string]models.CooperativeInfo{
		"patria": {Name: "Cooperativa Patria", RatingGlobal: map[string]float64{"puntualidad": 2}},
	})

	provinces, err := cs.Provinces()
	require.NoError(t, err)
	require.Len(t, provinces, 4)
	assert.Equal(t, ProvinceSummary{ID: "chimborazo", Name: "Chimborazo", Terminals: 2}, provinces[0])

	terminals, err := cs.Terminals("pichincha")
	require.NoError(t, err)
	require.Len(t, terminals, 2)
	assert.Equal(t, "quitumbe", terminals[0].ID)

	_, err = cs.Terminals("azuay")
	assert.ErrorIs(t, err, ErrNotFound)

	coops, err := cs.Cooperatives("riobamba")
	require.NoError(t, err)
	require.Len(t, coops, 3)
	assert.Equal(t, 4.5, coops[0].Rating)
	assert.Equal(t, Stars{Full: 4, Half: 1, Empty: 0}, coops[0].Stars)
	assert.Nil(t, coops[0].Info)

	// patria has no ratings of its own
	assert.Equal(t, 2.0, coops[2].Rating)
	require.NotNil(t, coops[2].Info)

	_, err = cs.Cooperatives("nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_Suggest(t *testing.T) {
	cs := newTestCatalog(nil)

	assert.Equal(t, []string{
		"Terminal Quitumbe",
		"Terminal Carcelén",
		"Terminal Terrestre Guayaquil",
	}, cs.Suggest("terminal", 10))
	assert.Equal(t, []string{"Terminal Quitumbe"}, cs.Suggest("TERMINAL", 1))
	assert.Equal(t, []string{"Riobamba"}, cs.Suggest("bamba", 0))
	assert.Empty(t, cs.Suggest("   ", 10))
	assert.Empty(t, cs.Suggest("Machala", 10))
}

func TestCatalogService_Featured(t *testing.T) {
	cs := newTestCatalog(nil)

	featured, err := cs.Featured()
	require.NoError(t, err)
	require.Len(t, featured, 3)

	assert.Equal(t, "coopx", featured[0].ID)
	assert.Equal(t, "riobamba", featured[0].TerminalID)
	assert.Equal(t, "esmeraldas", featured[1].ID)
	assert.Equal(t, "Terminal Quitumbe", featured[1].TerminalName)
	assert.Equal(t, "andina", featured[2].ID)
	assert.Len(t, featured[1].Routes, 3)
}

func TestCatalogService_FeaturedTrimsPreview(t *testing.T) {
	ds := searchtest.Dataset()
	coop := &ds.Provinces[0].Terminals[0].Cooperatives[0]
	for i := 0; i < 20; i++ {
		coop.Routes[0].Schedules = append(coop.Routes[0].Schedules, "23:59")
	}
	coop.Routes = append(coop.Routes,
		models.Route{Destination: "Ambato"},
		models.Route{Destination: "Latacunga"})

	idx := search.BuildRouteIndex(ds, "test", normalizer.NewTextNormalizer(nil))
	cs := NewCatalogServiceFromIndex(idx, nil, zap.NewNop())

	featured, err := cs.Featured()
	require.NoError(t, err)
	require.Equal(t, "coopx", featured[0].ID)
	assert.Len(t, featured[0].Routes, 3)
	assert.Len(t, featured[0].Routes[0].Schedules, 15)

	// the dataset itself is untouched
	assert.Len(t, idx.Dataset().Provinces[0].Terminals[0].Cooperatives[0].Routes[0].Schedules, 22)
}

func TestCatalogService_RoutesTo(t *testing.T) {
	cs := newTestCatalog(nil)

	routes, err := cs.RoutesTo("Quito")
	require.NoError(t, err)
	require.Len(t, routes, 3)

	var terminals []string
	for _, r := range routes {
		terminals = append(terminals, r.TerminalID)
	}
	assert.ElementsMatch(t, []string{"riobamba", "banos", "guayaquil"}, terminals)

	routes, err = cs.RoutesTo("Machala")
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestCatalogService_LinkMapIDs(t *testing.T) {
	cs := newTestCatalog(nil)

	links, err := cs.LinkMapIDs([]string{"path-Chimborazo", "EC-Pichincha_1", "ocean", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"path-Chimborazo": "chimborazo",
		"EC-Pichincha_1":  "pichincha",
	}, links)
}

func TestNormalizeMapID(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"Baños-1", "banos1"},
		{"Santo_Domingo de los Tsáchilas", "santodomingodelostsachilas"},
		{"--", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeMapID(tc.input))
		})
	}
}
