package parser

import (
	"errors"
	"strings"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/normalizer"
	"go.uber.org/zap"
)

var ErrEmptyQuery = errors.New("origin or destination is required")

// QueryParser prepares raw user input: trims it and applies fuzzy correction
// against the synonym vocabulary.
type QueryParser struct {
	normalizer *normalizer.TextNormalizer
	logger     *zap.Logger
}

func NewQueryParser(tn *normalizer.TextNormalizer, logger *zap.Logger) *QueryParser {
	return &QueryParser{normalizer: tn, logger: logger}
}

// Prepare returns the query with corrected fields. Fields with no close
// vocabulary term keep the raw text.
func (qp *QueryParser) Prepare(origin, destination string) (models.SearchQuery, error) {
	q := models.SearchQuery{
		Origin:      strings.TrimSpace(origin),
		Destination: strings.TrimSpace(destination),
	}
	if q.Origin == "" && q.Destination == "" {
		return q, ErrEmptyQuery
	}

	vocab := qp.normalizer.Synonyms().Vocabulary()
	maxDist := config.C.Thresholds.FuzzyDistance
	q.CorrectedOrigin = qp.correct(q.Origin, vocab, maxDist)
	q.CorrectedDestination = qp.correct(q.Destination, vocab, maxDist)
	return q, nil
}

func (qp *QueryParser) correct(raw string, vocab []normalizer.VocabularyTerm, maxDist int) string {
	if raw == "" {
		return ""
	}
	if canonical, ok := FuzzyFind(raw, vocab, maxDist); ok {
		if canonical != raw {
			qp.logger.Debug("Fuzzy corrected", zap.String("raw", raw), zap.String("canonical", canonical))
		}
		return canonical
	}
	return raw
}
