package normalizer

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/busvas-search/app/models"
	"go.uber.org/zap"
)

var (
	reDashes      = regexp.MustCompile(`[\x{2010}-\x{2015}]`)
	rePunctuation = regexp.MustCompile(`[(){}\[\],/\\|+<>:;"]`)
	reAmpersand   = regexp.MustCompile(`&amp;|&`)
	// "_" survives so canonical tokens normalize to themselves
	reNotAllowed = regexp.MustCompile(`[^0-9a-zA-Z_\s-]`)
)

// NormalizeBasic is the synonym-free normal form: ASCII, lower-case,
// punctuation folded to spaces, whitespace collapsed.
func NormalizeBasic(s string) string {
	if s == "" {
		return ""
	}
	s = StripDiacritics(s)
	s = reDashes.ReplaceAllString(s, " ")
	s = rePunctuation.ReplaceAllString(s, " ")
	s = reAmpersand.ReplaceAllString(s, " and ")
	s = Transliterate(s)
	s = reNotAllowed.ReplaceAllString(s, " ")
	s = strings.ToLower(s)
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// SynonymSource fetches synonym entries from a file path or URL.
type SynonymSource interface {
	LoadSynonyms(ctx context.Context, location string) ([]models.SynonymEntry, error)
}

// TextNormalizer applies the basic form and then the active synonym table.
type TextNormalizer struct {
	table atomic.Pointer[SynonymTable]
}

// NewTextNormalizer creates a normalizer; a nil table means the embedded default.
func NewTextNormalizer(table *SynonymTable) *TextNormalizer {
	if table == nil {
		table = DefaultSynonymTable()
	}
	tn := &TextNormalizer{}
	tn.table.Store(table)
	return tn
}

func (tn *TextNormalizer) Normalize(s string) string {
	basic := NormalizeBasic(s)
	if basic == "" {
		return ""
	}
	return collapse(tn.table.Load().Apply(basic))
}

func (tn *TextNormalizer) Synonyms() *SynonymTable {
	return tn.table.Load()
}

func (tn *TextNormalizer) SetSynonyms(table *SynonymTable) {
	if table != nil {
		tn.table.Store(table)
	}
}

// LoadSynonyms replaces the table with the entries found at location. Any
// failure keeps the current table and is only logged.
func (tn *TextNormalizer) LoadSynonyms(ctx context.Context, src SynonymSource, location string, logger *zap.Logger) bool {
	entries, err := src.LoadSynonyms(ctx, location)
	if err != nil {
		logger.Warn("Keeping current synonym table",
			zap.String("location", location),
			zap.Error(err))
		return false
	}
	table := NewSynonymTable(entries)
	tn.table.Store(table)
	logger.Info("Synonym table loaded",
		zap.String("location", location),
		zap.Int("entries", len(entries)),
		zap.Int("variants", table.Len()))
	return true
}
