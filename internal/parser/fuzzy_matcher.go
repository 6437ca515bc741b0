package parser

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/busvas-search/internal/normalizer"
	"github.com/xrash/smetrics"
)

// FuzzyFind returns the canonical token of the vocabulary term closest to
// term by edit distance, if that distance is at most maxDistance. Equal
// distances prefer the higher Jaro-Winkler similarity, then the earlier term.
func FuzzyFind(term string, vocabulary []normalizer.VocabularyTerm, maxDistance int) (string, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", false
	}

	bestDist := maxDistance + 1
	bestJW := -1.0
	best := ""
	for _, v := range vocabulary {
		cand := strings.ToLower(v.Term)
		dist := levenshtein.ComputeDistance(term, cand)
		if dist > maxDistance {
			continue
		}
		if dist < bestDist {
			best, bestDist = v.Canonical, dist
			bestJW = smetrics.JaroWinkler(term, cand, 0.7, 4)
			continue
		}
		if dist == bestDist {
			if jw := smetrics.JaroWinkler(term, cand, 0.7, 4); jw > bestJW {
				best, bestJW = v.Canonical, jw
			}
		}
	}
	return best, best != ""
}
