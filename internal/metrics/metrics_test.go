package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}

func TestIncSearch(t *testing.T) {
	before := testutil.ToFloat64(searches.WithLabelValues("matched"))
	IncSearch("matched")
	assert.Equal(t, before+1, testutil.ToFloat64(searches.WithLabelValues("matched")))
}

func TestIncNavigation(t *testing.T) {
	before := testutil.ToFloat64(navigations.WithLabelValues("canceled"))
	IncNavigation("canceled")
	assert.Equal(t, before+1, testutil.ToFloat64(navigations.WithLabelValues("canceled")))
}

func TestCacheLookups(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))
	IncCacheHit()
	IncCacheMiss()
	IncCacheMiss()
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))
}

func TestIncFavoriteToggle(t *testing.T) {
	added := testutil.ToFloat64(favoriteToggles.WithLabelValues("added"))
	IncFavoriteToggle(true)
	IncFavoriteToggle(false)
	assert.Equal(t, added+1, testutil.ToFloat64(favoriteToggles.WithLabelValues("added")))
}

func TestObservers(t *testing.T) {
	ObserveMatches(3)
	ObserveSearchDuration(2 * time.Millisecond)
	SetSessions(4)
	SetRoutesIndexed(15)
	assert.Equal(t, 4.0, testutil.ToFloat64(sessionsGauge))
	assert.Equal(t, 15.0, testutil.ToFloat64(routesGauge))
}
