package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/metrics"
	"github.com/busvas-search/internal/parser"
	"github.com/busvas-search/internal/search"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SearchService answers origin/destination queries without a view
type SearchService struct {
	catalog   *CatalogService
	cache     ICacheService
	group     singleflight.Group
	logger    *zap.Logger
	startTime time.Time
	searches  atomic.Int64
}

// NewSearchService accepts a nil cache
func NewSearchService(catalog *CatalogService, cache ICacheService, logger *zap.Logger) *SearchService {
	return &SearchService{
		catalog:   catalog,
		cache:     cache,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Fingerprint identifies a corrected query against one dataset version
func Fingerprint(idx *search.RouteIndex, q models.SearchQuery) string {
	tn := idx.Normalizer()
	key := tn.Normalize(q.CorrectedOrigin) + "|" + tn.Normalize(q.CorrectedDestination) + "|" + idx.Version()
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(key)))
}

func (ss *SearchService) Search(ctx context.Context, origin, destination string, useCache bool) (*models.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.ObserveSearchDuration(time.Since(start)) }()

	idx := ss.catalog.Index()
	if idx == nil {
		return nil, ErrDatasetEmpty
	}

	q, err := parser.NewQueryParser(idx.Normalizer(), ss.logger).Prepare(origin, destination)
	if err != nil {
		metrics.IncSearch("rejected")
		return nil, err
	}
	ss.searches.Add(1)
	fp := Fingerprint(idx, q)

	if useCache && ss.cache != nil {
		if cached, found, err := ss.cache.Get(ctx, fp); err != nil {
			ss.logger.Warn("Cache lookup failed", zap.Error(err), zap.String("fingerprint", fp))
		} else if found {
			metrics.IncCacheHit()
			result := *cached
			result.Query = q
			return &result, nil
		}
		metrics.IncCacheMiss()
	}

	v, err, shared := ss.group.Do(fp, func() (interface{}, error) {
		result := ss.compute(idx, q, fp)
		if ss.cache != nil {
			if err := ss.cache.Set(ctx, fp, result); err != nil {
				ss.logger.Warn("Cannot cache search result", zap.Error(err), zap.String("fingerprint", fp))
			}
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	result := *v.(*models.SearchResult)
	result.Query = q
	if shared {
		ss.logger.Debug("Search shared with a concurrent caller", zap.String("fingerprint", fp))
	}
	return &result, nil
}

func (ss *SearchService) compute(idx *search.RouteIndex, q models.SearchQuery, fp string) *models.SearchResult {
	result := &models.SearchResult{
		Query:          q,
		Matches:        []models.MatchedRoute{},
		Fingerprint:    fp,
		DatasetVersion: idx.Version(),
	}

	loc := parser.NewGeoResolver(idx, ss.logger).ResolveOrigin(q.CorrectedOrigin, q.CorrectedDestination, "")
	if loc == nil {
		result.Status = models.StatusNoMatches
		metrics.IncSearch(result.Status)
		return result
	}
	result.Location = &models.ResolvedLocation{
		ProvinceID:   loc.ProvinceID(),
		ProvinceName: idx.Dataset().Provinces[loc.Terminal.ProvinceIdx].Name,
		TerminalID:   loc.TerminalID(),
		TerminalName: loc.Terminal.Name,
		Rule:         string(loc.Rule),
	}

	if q.CorrectedDestination == "" {
		result.Status = models.StatusNoDestination
		metrics.IncSearch(result.Status)
		return result
	}

	matcher := parser.NewRouteMatcher(idx)
	scope := idx.ScopeSeq(loc.Terminal.Seq)
	for _, m := range matcher.FindMatches(scope, loc.Terminal.Name, q.CorrectedDestination) {
		best, _ := matcher.BestRouteInCooperative(parser.CardRecords(scope, m.Card), loc.Terminal.Name, q.CorrectedDestination)
		if best == nil {
			best = m.Best
		}
		mr := models.MatchedRoute{
			CooperativeID:   best.CooperativeID,
			CooperativeName: best.CooperativeName,
			TerminalID:      best.TerminalID,
			Destination:     best.Destination,
			Score:           m.Score,
			DestRatio:       m.DestRatio,
			OrigRatio:       m.OrigRatio,
		}
		if r := idx.Route(best); r != nil {
			mr.Schedules = r.Schedules
			mr.Price = priceLabel(r.Cost)
		}
		result.Matches = append(result.Matches, mr)
	}

	result.Status = models.StatusMatched
	if len(result.Matches) == 0 {
		result.Status = models.StatusNoMatches
	}
	metrics.IncSearch(result.Status)
	metrics.ObserveMatches(len(result.Matches))

	ss.logger.Debug("Search computed",
		zap.String("origin", q.CorrectedOrigin),
		zap.String("destination", q.CorrectedDestination),
		zap.String("terminal", loc.TerminalID()),
		zap.String("rule", string(loc.Rule)),
		zap.Int("matches", len(result.Matches)))
	return result
}

// WarmUp runs every terminal against every principal city so the cache is
// populated before traffic. Failed pairs are logged and skipped.
func (ss *SearchService) WarmUp(ctx context.Context, poolSize int) (int, error) {
	return ss.WarmUpWithProgress(ctx, poolSize, nil)
}

// WarmUpSize is the number of searches WarmUp will run
func (ss *SearchService) WarmUpSize() int {
	idx := ss.catalog.Index()
	if idx == nil {
		return 0
	}
	return len(idx.TerminalNames()) * len(idx.Dataset().PrincipalCities)
}

// WarmUpWithProgress is WarmUp calling progress once per finished pair
func (ss *SearchService) WarmUpWithProgress(ctx context.Context, poolSize int, progress func()) (int, error) {
	idx := ss.catalog.Index()
	if idx == nil {
		return 0, ErrDatasetEmpty
	}
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return 0, fmt.Errorf("create warm up pool: %w", err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		warmed atomic.Int64
	)
	cities := idx.Dataset().PrincipalCities
	for _, origin := range idx.TerminalNames() {
		for _, city := range cities {
			origin, city := origin, city
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if progress != nil {
					defer progress()
				}
				if ctx.Err() != nil {
					return
				}
				if _, err := ss.Search(ctx, origin, city, true); err != nil {
					ss.logger.Warn("Warm up search failed",
						zap.String("origin", origin),
						zap.String("destination", city),
						zap.Error(err))
					return
				}
				warmed.Add(1)
			})
			if submitErr != nil {
				wg.Done()
				ss.logger.Warn("Cannot submit warm up search", zap.Error(submitErr))
			}
		}
	}
	wg.Wait()

	ss.logger.Info("Search cache warmed",
		zap.Int64("searches", warmed.Load()),
		zap.Int("cities", len(cities)))
	return int(warmed.Load()), ctx.Err()
}

func (ss *SearchService) GetStartTime() time.Time {
	return ss.startTime
}

func (ss *SearchService) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"uptime_seconds": int(time.Since(ss.startTime).Seconds()),
		"searches":       ss.searches.Load(),
	}
	if idx := ss.catalog.Index(); idx != nil {
		stats["dataset_version"] = idx.Version()
		stats["terminals"] = len(idx.Terminals())
		stats["routes"] = idx.Len()
	}
	return stats
}
