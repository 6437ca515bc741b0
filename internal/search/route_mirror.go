package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/busvas-search/internal/normalizer"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

// SearchConfig configures the Meilisearch connection
type SearchConfig struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
	BatchSize int
}

// RouteDocument is one route as stored in Meilisearch
type RouteDocument struct {
	ID                    string   `json:"id"`
	ProvinceID            string   `json:"province_id"`
	TerminalID            string   `json:"terminal_id"`
	Terminal              string   `json:"terminal"`
	CooperativeID         string   `json:"cooperative_id"`
	Cooperative           string   `json:"cooperative"`
	Destination           string   `json:"destination"`
	NormalizedDestination string   `json:"normalized_destination"`
	Schedules             []string `json:"schedules"`
	Cost                  *float64 `json:"cost,omitempty"`
	DatasetVersion        string   `json:"dataset_version"`
}

// RouteHit is a search hit read back from Meilisearch
type RouteHit struct {
	ID          string  `json:"id"`
	TerminalID  string  `json:"terminal_id"`
	Cooperative string  `json:"cooperative"`
	Destination string  `json:"destination"`
	Score       float64 `json:"score"`
}

// MeiliRouteMirror mirrors the route index into Meilisearch for admin tooling.
// Search correctness never depends on it.
type MeiliRouteMirror struct {
	client    meilisearch.ServiceManager
	wrapper   *ClientWrapper
	logger    *zap.Logger
	indexName string
	batchSize int
}

func NewMeiliRouteMirror(config SearchConfig, logger *zap.Logger) (*MeiliRouteMirror, error) {
	wrapper := NewClientWrapper(config.Host, config.APIKey)
	client := wrapper.cli

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("cannot reach Meilisearch: %w", err)
	}

	batch := config.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	return &MeiliRouteMirror{
		client:    client,
		wrapper:   wrapper,
		logger:    logger,
		indexName: config.IndexName,
		batchSize: batch,
	}, nil
}

// RouteDocuments flattens the index into Meilisearch documents.
func RouteDocuments(idx *RouteIndex) []RouteDocument {
	docs := make([]RouteDocument, 0, idx.Len())
	for _, rec := range idx.All() {
		route := idx.Route(rec)
		doc := RouteDocument{
			ID:                    fmt.Sprintf("%s-%s-%d", sanitizeID(rec.TerminalID), sanitizeID(rec.CooperativeID), rec.RouteIdx),
			ProvinceID:            rec.ProvinceID,
			TerminalID:            rec.TerminalID,
			Terminal:              rec.TerminalName,
			CooperativeID:         rec.CooperativeID,
			Cooperative:           rec.CooperativeName,
			Destination:           rec.Destination,
			NormalizedDestination: rec.DestCandidates[0].Normalized,
			DatasetVersion:        idx.Version(),
		}
		if route != nil {
			doc.Schedules = route.Schedules
			doc.Cost = route.Cost.Value
		}
		docs = append(docs, doc)
	}
	return docs
}

// sanitizeID keeps only characters Meilisearch accepts in a document id.
func sanitizeID(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// BuildIndexes configures searchable and filterable attributes
func (m *MeiliRouteMirror) BuildIndexes() error {
	index := m.client.Index(m.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"destination", "normalized_destination", "terminal", "cooperative"},
		FilterableAttributes: []string{"province_id", "terminal_id", "cooperative_id", "dataset_version"},
		SortableAttributes:   []string{"destination"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"de", "la", "el", "los", "las", "terminal", "terrestre"},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  4,
				TwoTypos: 8,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure index: %w", err)
	}

	m.logger.Info("Meilisearch index configured", zap.Int64("task_uid", task.TaskUID))
	return nil
}

// SeedRoutes pushes every route of idx in batches.
func (m *MeiliRouteMirror) SeedRoutes(idx *RouteIndex) (int, error) {
	docs := RouteDocuments(idx)
	if len(docs) == 0 {
		return 0, errors.New("no routes to seed")
	}

	index := m.client.Index(m.indexName)
	for i := 0; i < len(docs); i += m.batchSize {
		end := i + m.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		task, err := index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return i, fmt.Errorf("add documents %d-%d: %w", i, end, err)
		}

		m.logger.Info("Route batch added",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}

	m.logger.Info("Routes seeded", zap.Int("total_documents", len(docs)))
	return len(docs), nil
}

// ApplySynonyms pushes the synonym table as Meilisearch synonyms
func (m *MeiliRouteMirror) ApplySynonyms(table *normalizer.SynonymTable) error {
	synonyms := table.MeiliSynonyms()
	task, err := m.client.Index(m.indexName).UpdateSynonyms(&synonyms)
	if err != nil {
		return fmt.Errorf("update synonyms: %w", err)
	}
	m.logger.Info("Meilisearch synonyms updated",
		zap.Int("groups", len(synonyms)),
		zap.Int64("task_uid", task.TaskUID))
	return nil
}

// SearchRoutes queries the mirror, optionally scoped to a terminal.
func (m *MeiliRouteMirror) SearchRoutes(query, terminalID string, limit int) ([]RouteHit, error) {
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	if limit <= 0 {
		limit = 20
	}
	result, err := m.wrapper.SearchIndex(m.indexName, query, FilterTerminal("", terminalID), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("search routes: %w", err)
	}

	var hits []RouteHit
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		h := RouteHit{Score: 0.5}
		h.ID, _ = hitMap["id"].(string)
		h.TerminalID, _ = hitMap["terminal_id"].(string)
		h.Cooperative, _ = hitMap["cooperative"].(string)
		h.Destination, _ = hitMap["destination"].(string)
		if rankingScore, ok := hitMap["_rankingScore"].(float64); ok {
			h.Score = rankingScore
		}
		hits = append(hits, h)
	}
	return hits, nil
}
