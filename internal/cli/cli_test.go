package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/busvas-search/app/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataset = `{"ciudades_principales":["Quito","Guayaquil"],"provincias":[
	{"id":"chimborazo","nombre":"Chimborazo","terminales":[
		{"id":"riobamba","nombre":"Riobamba","cooperativas":[
			{"id":"coopx","nombre":"CoopX","rutas":[
				{"destino":"Quito","horarios":["08:00","10:30"],"costo":5},
				{"destino":"Guayaquil","horarios":["09:00"],"costo":"6"}]}]}]},
	{"id":"pichincha","nombre":"Pichincha","terminales":[
		{"id":"quitumbe","nombre":"Terminal Quitumbe","cooperativas":[
			{"id":"esmeraldas","nombre":"Trans Esmeraldas","rutas":[
				{"destino":"Riobamba","horarios":["06:30"],"costo":5}]}]}]}]}`

// setupCLI writes a dataset and an app.yaml into a temp dir and returns the
// flags pointing the commands at it.
func setupCLI(t *testing.T) []string {
	t.Helper()
	saved := config.C
	t.Cleanup(func() { config.C = saved })

	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("data.json", testDataset)
	write("coop.json", `{"coopx":{"nombre":"CoopX","rating_global":{"puntualidad":4,"comodidad":5}}}`)
	write("sinonimos.json", `[]`)
	write("app.yaml", "data:\n  root: "+dir+"\nsearch:\n  config: \"\"\ncache:\n  backend: memory\nfavorites:\n  badger_dir: "+filepath.Join(dir, "favorites")+"\nmeilisearch:\n  url: \"\"\n")

	return []string{"--config", filepath.Join(dir, "app.yaml")}
}

func run(t *testing.T, flags []string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append(args, flags...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "search", "Riobamba", "Quito")
	require.NoError(t, err)
	assert.Contains(t, out, "Origin: Riobamba, Chimborazo")
	assert.Contains(t, out, "CoopX")
	assert.Contains(t, out, "08:00 10:30")
	assert.Contains(t, out, "$5")
}

func TestSearchCommand_NoMatches(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "search", "Terminal Quitumbe", "Loja")
	require.NoError(t, err)
	assert.Contains(t, out, "No cooperatives serve Loja")
}

func TestSearchCommand_RejectsMissingArgs(t *testing.T) {
	flags := setupCLI(t)

	_, err := run(t, flags, "search")
	assert.Error(t, err)
}

func TestRoutesCommand(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "routes", "quito")
	require.NoError(t, err)
	assert.Contains(t, out, "Riobamba")
	assert.Contains(t, out, "CoopX")

	out, err = run(t, flags, "routes", "Tulcán")
	require.NoError(t, err)
	assert.Contains(t, out, "No routes to Tulcán")
}

func TestFeaturedCommand(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "featured")
	require.NoError(t, err)
	assert.Contains(t, out, "CoopX")
	assert.Contains(t, out, "★★★★½ 4.5")
}

func TestWarmCommand(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "warm", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Warmed 4 searches")
}

func TestFavoritesCommands(t *testing.T) {
	flags := setupCLI(t)

	out, err := run(t, flags, "favorites", "toggle", "--owner", "ana",
		"--coop", "CoopX", "--origen", "Riobamba", "--destino", "Quito", "--hora", "08:00", "--precio", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Added")

	out, err = run(t, flags, "favorites", "list", "--owner", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "CoopX")
	assert.Contains(t, out, "08:00")

	_, err = run(t, flags, "favorites", "remove", "x", "--owner", "ana")
	assert.Error(t, err)

	out, err = run(t, flags, "favorites", "clear", "--owner", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "Favorites cleared")

	out, err = run(t, flags, "favorites", "list", "--owner", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "No favorite routes")
}

func TestSeedMeiliCommand_Disabled(t *testing.T) {
	flags := setupCLI(t)

	_, err := run(t, flags, "seed-meili")
	assert.Error(t, err)
}
