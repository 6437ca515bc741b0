package parser

import (
	"sort"
	"strings"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/internal/normalizer"
	"github.com/busvas-search/internal/search"
)

// MatchCandidate is one accepted cooperative card and the route that scored best in it.
type MatchCandidate struct {
	Card      search.CardKey
	Best      *search.RouteRecord
	Score     float64
	DestRatio float64
	OrigRatio float64
}

// RouteMatcher scores route records against an origin/destination pair.
type RouteMatcher struct {
	index *search.RouteIndex
}

func NewRouteMatcher(index *search.RouteIndex) *RouteMatcher {
	return &RouteMatcher{index: index}
}

type matchQuery struct {
	destNorm   string
	destTokens []string
	origTokens []string
}

func (rm *RouteMatcher) query(origin, destination string) matchQuery {
	tn := rm.index.Normalizer()
	q := matchQuery{destNorm: tn.Normalize(destination)}
	q.destTokens = normalizer.SplitTokens(q.destNorm)
	if origin != "" {
		q.origTokens = tn.Tokenize(origin)
	}
	return q
}

// FindMatches ranks the cooperative cards of records. An empty destination yields no matches.
func (rm *RouteMatcher) FindMatches(records []*search.RouteRecord, origin, destination string) []MatchCandidate {
	if strings.TrimSpace(destination) == "" {
		return nil
	}
	q := rm.query(origin, destination)
	w := config.C.Weights
	th := config.C.Thresholds

	// cards in first-seen order so equal scores keep view order
	var order []search.CardKey
	best := make(map[search.CardKey]*MatchCandidate)

	for _, rec := range records {
		card := rec.Card()
		m, ok := best[card]
		if !ok {
			m = &MatchCandidate{Card: card}
			best[card] = m
			order = append(order, card)
		}

		var origMatched int
		origRatio := th.MissingOrigRatio
		if len(q.origTokens) > 0 {
			origMatched = normalizer.CountMatches(q.origTokens, rec.Origin.Tokens)
			origRatio = float64(origMatched) / float64(len(q.origTokens))
		}

		for _, dc := range rec.DestCandidates {
			destMatched := normalizer.CountMatches(q.destTokens, dc.Tokens)
			destRatio := 0.0
			if len(q.destTokens) > 0 {
				destRatio = float64(destMatched) / float64(len(q.destTokens))
			}

			score := w.DestMatched*float64(destMatched) + w.OrigMatched*float64(origMatched) +
				w.DestRatio*destRatio + w.OrigRatio*origRatio
			if dc.Normalized != "" && q.destNorm != "" && strings.Contains(dc.Normalized, q.destNorm) {
				score += w.ExactBoost
			}

			if score > m.Score {
				m.Score = score
				m.Best = rec
				m.DestRatio = destRatio
				m.OrigRatio = origRatio
			}
		}
	}

	var out []MatchCandidate
	for _, card := range order {
		m := best[card]
		if m.Best != nil && rm.accepted(m, len(q.origTokens) > 0) {
			out = append(out, *m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit := config.C.MaxCooperatives; limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (rm *RouteMatcher) accepted(m *MatchCandidate, hasOrigin bool) bool {
	th := config.C.Thresholds
	if m.Score >= config.C.Weights.ExactBoost {
		return true
	}
	if m.Score <= 0 || m.DestRatio < th.MinDestRatio {
		return false
	}
	return !hasOrigin || m.OrigRatio >= th.MinOrigRatio || m.Score >= 2
}

// BestRouteInCooperative is the cheaper pass used once a card is open:
// score = 2·destMatched + origMatched, no ratios, no boost.
func (rm *RouteMatcher) BestRouteInCooperative(records []*search.RouteRecord, origin, destination string) (*search.RouteRecord, float64) {
	if strings.TrimSpace(destination) == "" {
		return nil, 0
	}
	q := rm.query(origin, destination)
	w := config.C.Weights

	var best *search.RouteRecord
	var bestScore float64
	for _, rec := range records {
		origMatched := 0
		if len(q.origTokens) > 0 {
			origMatched = normalizer.CountMatches(q.origTokens, rec.Origin.Tokens)
		}
		for _, dc := range rec.DestCandidates {
			score := w.DestMatched*float64(normalizer.CountMatches(q.destTokens, dc.Tokens)) + w.OrigMatched*float64(origMatched)
			if score > bestScore {
				best, bestScore = rec, score
			}
		}
	}
	return best, bestScore
}

// CardRecords filters records down to one cooperative card.
func CardRecords(records []*search.RouteRecord, card search.CardKey) []*search.RouteRecord {
	var out []*search.RouteRecord
	for _, r := range records {
		if r.Card() == card {
			out = append(out, r)
		}
	}
	return out
}
