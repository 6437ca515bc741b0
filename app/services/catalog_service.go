package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/external"
	"github.com/busvas-search/internal/metrics"
	"github.com/busvas-search/internal/normalizer"
	"github.com/busvas-search/internal/search"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

var (
	ErrDatasetEmpty = errors.New("dataset has no terminals")
	ErrNotFound     = errors.New("not found")
)

const (
	featuredCount     = 3
	featuredRoutes    = 3
	featuredSchedules = 15
)

// CatalogSources are the locations (file path or http url) of the published data
type CatalogSources struct {
	Dataset      string
	Cooperatives string
	Synonyms     string
}

type ProvinceSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Terminals int    `json:"terminals"`
}

type TerminalSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProvinceID   string `json:"province_id"`
	Cooperatives int    `json:"cooperatives"`
}

type Stars struct {
	Full  int `json:"full"`
	Half  int `json:"half"`
	Empty int `json:"empty"`
}

type CooperativeDetail struct {
	ID     string                  `json:"id"`
	Name   string                  `json:"name"`
	Phones models.Phones           `json:"phones"`
	Routes []models.Route          `json:"routes"`
	Rating float64                 `json:"rating"`
	Stars  Stars                   `json:"stars"`
	Info   *models.CooperativeInfo `json:"info,omitempty"`
}

type FeaturedCooperative struct {
	CooperativeDetail
	TerminalID   string `json:"terminal_id"`
	TerminalName string `json:"terminal_name"`
}

type DestinationRoute struct {
	ProvinceID      string   `json:"province_id"`
	TerminalID      string   `json:"terminal_id"`
	TerminalName    string   `json:"terminal_name"`
	CooperativeID   string   `json:"cooperative_id"`
	CooperativeName string   `json:"cooperative_name"`
	Destination     string   `json:"destination"`
	Schedules       []string `json:"schedules"`
	Price           string   `json:"price,omitempty"`
}

// CatalogService owns the loaded dataset. Reloads build a new route index
// and swap it in; readers keep whichever index they already hold.
type CatalogService struct {
	loader  *external.ResourceLoader
	sources CatalogSources
	index   atomic.Pointer[search.RouteIndex]
	info    atomic.Pointer[map[string]models.CooperativeInfo]
	logger  *zap.Logger
}

func NewCatalogService(loader *external.ResourceLoader, sources CatalogSources, logger *zap.Logger) *CatalogService {
	return &CatalogService{loader: loader, sources: sources, logger: logger}
}

// NewCatalogServiceFromIndex serves an already built index
func NewCatalogServiceFromIndex(idx *search.RouteIndex, info map[string]models.CooperativeInfo, logger *zap.Logger) *CatalogService {
	cs := &CatalogService{logger: logger}
	cs.swap(idx, info)
	return cs
}

// Load fetches synonyms, dataset and cooperative info. Only a dataset failure is an error.
func (cs *CatalogService) Load(ctx context.Context) error {
	tn := normalizer.NewTextNormalizer(nil)
	if cs.sources.Synonyms != "" {
		tn.LoadSynonyms(ctx, cs.loader, cs.sources.Synonyms, cs.logger)
	}

	ds, version, err := cs.loader.LoadDataset(ctx, cs.sources.Dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if ds.TerminalCount() == 0 {
		return ErrDatasetEmpty
	}

	info := map[string]models.CooperativeInfo{}
	if cs.sources.Cooperatives != "" {
		if loaded, err := cs.loader.LoadCooperativeInfo(ctx, cs.sources.Cooperatives); err != nil {
			cs.logger.Warn("Cooperative info unavailable", zap.String("source", cs.sources.Cooperatives), zap.Error(err))
		} else {
			info = loaded
		}
	}

	idx := search.BuildRouteIndex(ds, version, tn)
	cs.swap(idx, info)

	cs.logger.Info("Catalog loaded",
		zap.String("version", version),
		zap.Int("provinces", len(ds.Provinces)),
		zap.Int("terminals", ds.TerminalCount()),
		zap.Int("routes", idx.Len()),
		zap.Int("synonyms", tn.Synonyms().Len()))
	return nil
}

func (cs *CatalogService) swap(idx *search.RouteIndex, info map[string]models.CooperativeInfo) {
	if info == nil {
		info = map[string]models.CooperativeInfo{}
	}
	cs.info.Store(&info)
	cs.index.Store(idx)
	metrics.SetRoutesIndexed(idx.Len())
}

// Index is nil until the first successful Load
func (cs *CatalogService) Index() *search.RouteIndex {
	return cs.index.Load()
}

func (cs *CatalogService) Version() string {
	if idx := cs.Index(); idx != nil {
		return idx.Version()
	}
	return ""
}

func (cs *CatalogService) ready() (*search.RouteIndex, error) {
	idx := cs.Index()
	if idx == nil || len(idx.Terminals()) == 0 {
		return nil, ErrDatasetEmpty
	}
	return idx, nil
}

func (cs *CatalogService) cooperativeInfo(id string) (models.CooperativeInfo, bool) {
	m := cs.info.Load()
	if m == nil {
		return models.CooperativeInfo{}, false
	}
	info, ok := (*m)[id]
	return info, ok
}

func (cs *CatalogService) Provinces() ([]ProvinceSummary, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	provinces := idx.Dataset().Provinces
	out := make([]ProvinceSummary, 0, len(provinces))
	for _, p := range provinces {
		out = append(out, ProvinceSummary{ID: p.ID, Name: p.Name, Terminals: len(p.Terminals)})
	}
	return out, nil
}

func (cs *CatalogService) Terminals(provinceID string) ([]TerminalSummary, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	p, ok := idx.Dataset().FindProvince(provinceID)
	if !ok {
		return nil, fmt.Errorf("province %q: %w", provinceID, ErrNotFound)
	}
	out := make([]TerminalSummary, 0, len(p.Terminals))
	for _, t := range p.Terminals {
		out = append(out, TerminalSummary{ID: t.ID, Name: t.Name, ProvinceID: p.ID, Cooperatives: len(t.Cooperatives)})
	}
	return out, nil
}

func (cs *CatalogService) Cooperatives(terminalID string) ([]CooperativeDetail, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	_, t, ok := idx.Dataset().FindTerminal(terminalID)
	if !ok {
		return nil, fmt.Errorf("terminal %q: %w", terminalID, ErrNotFound)
	}
	out := make([]CooperativeDetail, 0, len(t.Cooperatives))
	for _, c := range t.Cooperatives {
		out = append(out, cs.detail(c))
	}
	return out, nil
}

// detail rates a cooperative from its own ratings, falling back to the published info
func (cs *CatalogService) detail(c models.Cooperative) CooperativeDetail {
	d := CooperativeDetail{ID: c.ID, Name: c.Name, Phones: c.Phones, Routes: c.Routes}
	ratings := c.RatingGlobal
	if info, ok := cs.cooperativeInfo(c.ID); ok {
		d.Info = &info
		if len(ratings) == 0 {
			ratings = info.RatingGlobal
		}
	}
	d.Rating = models.AverageRating(ratings)
	d.Stars.Full, d.Stars.Half, d.Stars.Empty = models.StarRating(d.Rating)
	return d
}

// Suggest filters terminal names containing query, closest fuzzy matches first
func (cs *CatalogService) Suggest(query string, limit int) []string {
	query = strings.TrimSpace(query)
	idx := cs.Index()
	if query == "" || idx == nil {
		return []string{}
	}
	if limit <= 0 {
		limit = config.C.SuggestionLimit
	}

	lowered := strings.ToLower(query)
	var names []string
	for _, name := range idx.TerminalNames() {
		if strings.Contains(strings.ToLower(name), lowered) {
			names = append(names, name)
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	distance := make(map[int]int, len(ranks))
	for _, r := range ranks {
		distance[r.OriginalIndex] = r.Distance
	}
	order := make([]int, len(names))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		da, okA := distance[order[a]]
		db, okB := distance[order[b]]
		if okA != okB {
			return okA
		}
		return da < db
	})

	out := make([]string, 0, limit)
	for _, i := range order {
		if len(out) == limit {
			break
		}
		out = append(out, names[i])
	}
	return out
}

// Featured returns the best rated cooperatives that have routes, with a
// trimmed preview of their routes.
func (cs *CatalogService) Featured() ([]FeaturedCooperative, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	var all []FeaturedCooperative
	for _, p := range idx.Dataset().Provinces {
		for _, t := range p.Terminals {
			for _, c := range t.Cooperatives {
				if len(c.Routes) == 0 {
					continue
				}
				all = append(all, FeaturedCooperative{CooperativeDetail: cs.detail(c), TerminalID: t.ID, TerminalName: t.Name})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Rating > all[j].Rating })
	if len(all) > featuredCount {
		all = all[:featuredCount]
	}

	for i := range all {
		routes := all[i].Routes
		if len(routes) > featuredRoutes {
			routes = routes[:featuredRoutes]
		}
		preview := make([]models.Route, len(routes))
		for j, r := range routes {
			if len(r.Schedules) > featuredSchedules {
				r.Schedules = r.Schedules[:featuredSchedules]
			}
			preview[j] = r
		}
		all[i].Routes = preview
	}
	return all, nil
}

// RoutesTo lists every route whose destination holds all the tokens of name
func (cs *CatalogService) RoutesTo(name string) ([]DestinationRoute, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	records := idx.DestinationsFor(name)
	out := make([]DestinationRoute, 0, len(records))
	for _, rec := range records {
		dr := DestinationRoute{
			ProvinceID:      rec.ProvinceID,
			TerminalID:      rec.TerminalID,
			TerminalName:    rec.TerminalName,
			CooperativeID:   rec.CooperativeID,
			CooperativeName: rec.CooperativeName,
			Destination:     rec.Destination,
		}
		if r := idx.Route(rec); r != nil {
			dr.Schedules = r.Schedules
			dr.Price = priceLabel(r.Cost)
		}
		out = append(out, dr)
	}
	return out, nil
}

// LinkMapIDs maps each svg element id to the first province whose id it contains
func (cs *CatalogService) LinkMapIDs(svgIDs []string) (map[string]string, error) {
	idx, err := cs.ready()
	if err != nil {
		return nil, err
	}
	provinces := idx.Dataset().Provinces
	links := make(map[string]string, len(svgIDs))
	for _, svgID := range svgIDs {
		target := NormalizeMapID(svgID)
		if target == "" {
			continue
		}
		for _, p := range provinces {
			if pid := NormalizeMapID(p.ID); pid != "" && strings.Contains(target, pid) {
				links[svgID] = p.ID
				break
			}
		}
	}
	return links, nil
}

// NormalizeMapID strips diacritics and every non alphanumeric character
func NormalizeMapID(s string) string {
	s = normalizer.RemoveAccentsAndLowercase(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func priceLabel(c models.Cost) string {
	if c.IsZero() {
		return ""
	}
	return "$" + c.Text
}
