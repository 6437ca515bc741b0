package view

import (
	"testing"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/search/searchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ready(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("render did not complete")
	}
}

func newView() *View {
	return New(searchtest.Index(), zap.NewNop())
}

func TestView_SelectProvince(t *testing.T) {
	v := newView()
	assert.Equal(t, SectionHome, v.Snapshot().Section)

	ready(t, v.SelectProvince("chimborazo"))

	s := v.Snapshot()
	assert.Equal(t, SectionProvince, s.Section)
	assert.Equal(t, "Chimborazo", s.ProvinceName)
	require.Len(t, s.Terminals, 2)
	assert.Equal(t, "riobamba", s.Terminals[0].ID)
	assert.Equal(t, 3, s.Terminals[0].Cooperatives)
}

func TestView_SelectUnknownIsNoop(t *testing.T) {
	v := newView()
	before := v.Version()

	ready(t, v.SelectProvince("galapagos"))
	ready(t, v.SelectTerminal("nowhere"))

	assert.Equal(t, before, v.Version())
	assert.Equal(t, SectionHome, v.Snapshot().Section)
}

func TestView_SelectTerminalExpandsFirstCard(t *testing.T) {
	v := newView()
	ready(t, v.SelectTerminal("riobamba"))

	s := v.Snapshot()
	assert.Equal(t, SectionTerminal, s.Section)
	assert.Equal(t, "chimborazo", s.ProvinceID)
	require.Len(t, s.Cooperatives, 3)

	first := s.Cooperatives[0]
	assert.True(t, first.Expanded)
	require.Len(t, first.Routes, 2)
	assert.Equal(t, "Riobamba - Quito", first.Routes[0].Label)
	require.Len(t, first.Routes[0].Times, 2)
	assert.Equal(t, "5", first.Routes[0].Times[0].Price)
	assert.Equal(t, "$5", first.Routes[0].Times[0].PriceLabel)

	assert.False(t, s.Cooperatives[1].Expanded)
	assert.Empty(t, s.Cooperatives[1].Routes)
}

func TestView_RenderIsAsynchronous(t *testing.T) {
	v := newView()
	v.SetRenderDelay(20 * time.Millisecond)

	ch := v.SelectTerminal("riobamba")
	assert.Equal(t, 0, v.CooperativeCount())
	ready(t, ch)
	assert.Equal(t, 3, v.CooperativeCount())
}

func TestView_SupersededRenderIsDropped(t *testing.T) {
	v := newView()
	v.SetRenderDelay(20 * time.Millisecond)

	first := v.SelectTerminal("riobamba")
	second := v.SelectTerminal("banos")
	ready(t, first)
	ready(t, second)

	s := v.Snapshot()
	assert.Equal(t, "banos", s.TerminalID)
	require.Len(t, s.Cooperatives, 1)
	assert.Equal(t, "expreso-banos", s.Cooperatives[0].ID)
}

func TestView_ExpandAndHighlight(t *testing.T) {
	v := newView()
	ready(t, v.SelectTerminal("riobamba"))

	ready(t, v.ExpandCooperative(1))
	assert.True(t, v.RoutesRendered(1))

	// already open
	ready(t, v.ExpandCooperative(0))
	// out of range
	ready(t, v.ExpandCooperative(9))

	v.ScrollTo(1)
	v.HighlightCard(1)
	assert.True(t, v.HighlightRoute(1, 1))
	assert.False(t, v.HighlightRoute(1, 7))
	assert.False(t, v.HighlightRoute(2, 0))

	s := v.Snapshot()
	assert.Equal(t, 1, s.ScrolledTo)
	assert.True(t, s.Cooperatives[1].Highlighted)
	row := s.Cooperatives[1].Routes[1]
	assert.True(t, row.Highlighted)
	for _, ts := range row.Times {
		assert.True(t, ts.SearchHighlight)
	}
	assert.False(t, s.Cooperatives[1].Routes[0].Highlighted)
}

func TestView_ToggleAll(t *testing.T) {
	v := newView()
	ready(t, v.SelectTerminal("riobamba"))

	s := v.ToggleAll()
	for _, c := range s.Cooperatives {
		assert.True(t, c.Expanded)
		assert.NotEmpty(t, c.Routes)
	}

	s = v.ToggleAll()
	for _, c := range s.Cooperatives {
		assert.False(t, c.Expanded)
	}
}

func TestView_Favorites(t *testing.T) {
	v := newView()
	fav := models.FavoriteRoute{Cooperative: "CoopX", Origin: "Riobamba", Destination: "Quito", Time: "10:30", Price: "5"}
	favs := []models.FavoriteRoute{fav}
	v.SetFavoriteCheck(func(r models.FavoriteRoute) bool {
		for _, f := range favs {
			if f.SameRoute(r) {
				return true
			}
		}
		return false
	})
	ready(t, v.SelectTerminal("riobamba"))

	times := v.Snapshot().Cooperatives[0].Routes[0].Times
	assert.False(t, times[0].Active)
	assert.True(t, times[1].Active)

	favs = nil
	v.MarkFavorites()
	assert.False(t, v.Snapshot().Cooperatives[0].Routes[0].Times[1].Active)
}

func TestView_FavoriteKeyedOnRawCost(t *testing.T) {
	v := newView()
	ready(t, v.SelectTerminal("riobamba"))
	slot := v.Snapshot().Cooperatives[0].Routes[0].Times[1]
	assert.Equal(t, "5", slot.Price)
	assert.Equal(t, "$5", slot.PriceLabel)

	raw := models.FavoriteRoute{Cooperative: "CoopX", Origin: "Riobamba", Destination: "Quito", Time: "10:30", Price: "5"}
	labelled := raw
	labelled.Price = "$5"
	v.SetFavoriteCheck(func(r models.FavoriteRoute) bool { return raw.SameRoute(r) })
	v.MarkFavorites()

	times := v.Snapshot().Cooperatives[0].Routes[0].Times
	assert.True(t, times[1].Active)
	assert.False(t, labelled.SameRoute(times[1].Favorite()))
}

func TestView_SnapshotIsACopy(t *testing.T) {
	v := newView()
	ready(t, v.SelectTerminal("riobamba"))

	s := v.Snapshot()
	s.Cooperatives[0].Routes[0].Times[0].SearchHighlight = true
	s.Cooperatives[0].Name = "changed"

	fresh := v.Snapshot()
	assert.False(t, fresh.Cooperatives[0].Routes[0].Times[0].SearchHighlight)
	assert.Equal(t, "CoopX", fresh.Cooperatives[0].Name)
}
