package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/busvas-search/app/models"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// CanonicalToken turns a canonical name into its token form: "Banos de Agua Santa" → "banos_de_agua_santa"
func CanonicalToken(s string) string {
	return reWhitespace.ReplaceAllString(strings.TrimSpace(strings.ToLower(s)), "_")
}

type synonymRule struct {
	variant   string
	canonical string
	re        *regexp.Regexp
}

// VocabularyTerm is one fuzzy-matchable spelling and the canonical token it stands for.
type VocabularyTerm struct {
	Term      string
	Canonical string
}

// SynonymTable is immutable once built; reloads build a new table and swap it.
type SynonymTable struct {
	entries []models.SynonymEntry
	lookup  map[string]string
	rules   []synonymRule
}

// NewSynonymTable builds the lookup from entries. Variants are normalized with
// NormalizeBasic; on collision the later entry wins.
func NewSynonymTable(entries []models.SynonymEntry) *SynonymTable {
	st := &SynonymTable{
		entries: append([]models.SynonymEntry(nil), entries...),
		lookup:  make(map[string]string),
	}
	for _, e := range entries {
		canonical := CanonicalToken(e.Canonical)
		if canonical == "" {
			continue
		}
		for _, v := range e.Variants {
			key := NormalizeBasic(v)
			if key == "" {
				continue
			}
			st.lookup[key] = canonical
		}
	}

	variants := make([]string, 0, len(st.lookup))
	for v := range st.lookup {
		variants = append(variants, v)
	}
	// longest first so "banos de agua santa" wins over "banos"
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i]) != len(variants[j]) {
			return len(variants[i]) > len(variants[j])
		}
		return variants[i] < variants[j]
	})
	st.rules = make([]synonymRule, 0, len(variants))
	for _, v := range variants {
		st.rules = append(st.rules, synonymRule{
			variant:   v,
			canonical: st.lookup[v],
			re:        regexp.MustCompile(`\b` + regexp.QuoteMeta(v) + `\b`),
		})
	}
	return st
}

// DefaultSynonymTable returns the embedded table.
func DefaultSynonymTable() *SynonymTable {
	return NewSynonymTable(DefaultSynonymEntries())
}

// Apply replaces every whole-word variant occurrence in an already basic-normalized string.
func (st *SynonymTable) Apply(s string) string {
	if st == nil || s == "" {
		return s
	}
	for _, r := range st.rules {
		if !strings.Contains(s, r.variant) {
			continue
		}
		s = r.re.ReplaceAllLiteralString(s, r.canonical)
	}
	return s
}

// Canonical looks up the canonical token of a basic-normalized variant.
func (st *SynonymTable) Canonical(variant string) (string, bool) {
	c, ok := st.lookup[variant]
	return c, ok
}

// Vocabulary lists every canonical token and every raw variant, in entry order.
func (st *SynonymTable) Vocabulary() []VocabularyTerm {
	var out []VocabularyTerm
	for _, e := range st.entries {
		canonical := CanonicalToken(e.Canonical)
		if canonical == "" {
			continue
		}
		out = append(out, VocabularyTerm{Term: canonical, Canonical: canonical})
		for _, v := range e.Variants {
			if strings.TrimSpace(v) == "" {
				continue
			}
			out = append(out, VocabularyTerm{Term: v, Canonical: canonical})
		}
	}
	return out
}

func (st *SynonymTable) Entries() []models.SynonymEntry {
	return append([]models.SynonymEntry(nil), st.entries...)
}

// Len is the number of distinct normalized variants.
func (st *SynonymTable) Len() int { return len(st.lookup) }

// MeiliSynonyms renders the table as a Meilisearch synonyms map: each
// canonical spelled with spaces is equivalent to all its variants.
func (st *SynonymTable) MeiliSynonyms() map[string][]string {
	groups := make(map[string][]string)
	for v, c := range st.lookup {
		groups[c] = append(groups[c], v)
	}
	out := make(map[string][]string, len(groups))
	for c, vs := range groups {
		sort.Strings(vs)
		spaced := strings.ReplaceAll(c, "_", " ")
		out[spaced] = vs
		for _, v := range vs {
			if v != spaced {
				out[v] = []string{spaced}
			}
		}
	}
	return out
}
