package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleDataset = `{
  "provincias": [
    {"id": "chimborazo", "nombre": "Chimborazo", "terminales": [
      {"id": "riobamba", "nombre": "Terminal Terrestre Riobamba", "cooperativas": [
        {"id": "coopx", "nombre": "CoopX", "telefonos": {"boleteria": "032-000"},
         "rutas": [{"destino": "Quito", "horarios": ["08:00", "10:30"], "costo": 5}]}
      ]}
    ]}
  ],
  "ciudades_principales": ["Quito"]
}`

func TestDecodeSynonyms(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"canonical":"quito","variants":["uio"]}]`, 1, false},
		{"wrapped", `{"entries":[{"canonical":"quito","variants":["uio"]},{"canonical":"loja","variants":[]}]}`, 2, false},
		{"empty array", `[]`, 0, true},
		{"empty body", ``, 0, true},
		{"garbage", `<html>`, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := DecodeSynonyms([]byte(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tc.want)
		})
	}
}

func TestResourceLoader_LoadDatasetFromFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte(sampleDataset), 0o644))

	rl := NewResourceLoader(dir, time.Second, zap.NewNop())
	ds, version, err := rl.LoadDataset(context.Background(), "/data.json")
	require.NoError(t, err)

	assert.NotEmpty(t, version)
	require.Len(t, ds.Provinces, 1)
	route := ds.Provinces[0].Terminals[0].Cooperatives[0].Routes[0]
	assert.Equal(t, "Quito", route.Destination)
	assert.Equal(t, "5", route.Cost.Text)
	require.NotNil(t, route.Cost.Value)
	assert.Equal(t, 5.0, *route.Cost.Value)
	assert.Equal(t, []string{"Quito"}, ds.PrincipalCities)
}

func TestResourceLoader_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sinonimos.json":
			w.Write([]byte(`{"entries":[{"canonical":"quito","variants":["uio"]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	rl := NewResourceLoader("", time.Second, zap.NewNop())

	entries, err := rl.LoadSynonyms(context.Background(), srv.URL+"/sinonimos.json")
	require.NoError(t, err)
	assert.Equal(t, "quito", entries[0].Canonical)

	_, err = rl.LoadSynonyms(context.Background(), srv.URL+"/missing.json")
	assert.Error(t, err)
}

func TestResourceLoader_MissingFile(t *testing.T) {
	rl := NewResourceLoader(t.TempDir(), time.Second, zap.NewNop())
	_, _, err := rl.LoadDataset(context.Background(), "nope.json")
	assert.Error(t, err)
}
