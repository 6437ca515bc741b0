package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "busvas_search"

var (
	registerOnce sync.Once

	searches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "searches_total",
		Help:      "Total number of searches by outcome",
	}, []string{"outcome"})
	searchMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_matches",
		Help:      "Number of matched cooperatives per search",
		Buckets:   prometheus.LinearBuckets(0, 1, 9),
	})
	searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Histogram of synchronous search durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
	navigations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "navigations_total",
		Help:      "Total number of session navigation runs by outcome",
	}, []string{"outcome"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Search cache lookups by result",
	}, []string{"result"})
	favoriteToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "favorite_toggles_total",
		Help:      "Favorite toggles by action",
	}, []string{"action"})

	sessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of live navigation sessions",
	})
	routesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "routes_indexed",
		Help:      "Routes in the loaded route index",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searches, searchMatches, searchDuration, navigations,
			cacheLookups, favoriteToggles, sessionsGauge, routesGauge)
	})
}

// Search helpers
func IncSearch(outcome string) { searches.WithLabelValues(outcome).Inc() }
func ObserveMatches(n int)     { searchMatches.Observe(float64(n)) }
func ObserveSearchDuration(d time.Duration) {
	searchDuration.Observe(d.Seconds())
}

func IncNavigation(outcome string) { navigations.WithLabelValues(outcome).Inc() }

func IncCacheHit()  { cacheLookups.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheLookups.WithLabelValues("miss").Inc() }

func IncFavoriteToggle(added bool) {
	if added {
		favoriteToggles.WithLabelValues("added").Inc()
		return
	}
	favoriteToggles.WithLabelValues("removed").Inc()
}

// Gauges
func SetSessions(n int)      { sessionsGauge.Set(float64(n)) }
func SetRoutesIndexed(n int) { routesGauge.Set(float64(n)) }
