package parser

import (
	"strings"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/internal/normalizer"
	"github.com/busvas-search/internal/search"
	"go.uber.org/zap"
)

// ResolveRule names the step of the origin fallback chain that produced a location.
type ResolveRule string

const (
	RuleExact       ResolveRule = "exact"
	RuleToken       ResolveRule = "token"
	RuleContains    ResolveRule = "contains"
	RuleDestination ResolveRule = "destination"
	RuleCurrent     ResolveRule = "current"
	RuleFirst       ResolveRule = "first"
)

// Location is a resolved terminal, as indices into the route index.
type Location struct {
	Terminal search.TerminalEntry
	Rule     ResolveRule
}

func (l *Location) TerminalID() string { return l.Terminal.TerminalID }
func (l *Location) ProvinceID() string { return l.Terminal.ProvinceID }

// GeoResolver maps free text to a terminal of the dataset.
type GeoResolver struct {
	index  *search.RouteIndex
	logger *zap.Logger
}

func NewGeoResolver(index *search.RouteIndex, logger *zap.Logger) *GeoResolver {
	return &GeoResolver{index: index, logger: logger}
}

// Resolve returns the terminal whose normalized name equals the query, or
// else the best token-overlap terminal when it clears the acceptance bar.
func (gr *GeoResolver) Resolve(name string) (*Location, bool) {
	tn := gr.index.Normalizer()
	target := tn.Normalize(name)
	if target == "" {
		return nil, false
	}
	userTokens := normalizer.SplitTokens(target)

	var (
		best      *search.TerminalEntry
		bestScore float64
		bestRatio float64
	)
	terminals := gr.index.Terminals()
	for i := range terminals {
		t := &terminals[i]
		if t.Name == "" {
			continue
		}
		if t.Normalized == target {
			return &Location{Terminal: *t, Rule: RuleExact}, true
		}
		if len(t.Tokens) == 0 {
			continue
		}
		matched := normalizer.CountMatches(userTokens, t.Tokens)
		ratio := 0.0
		if len(userTokens) > 0 {
			ratio = float64(matched) / float64(len(userTokens))
		}
		score := float64(matched) + ratio*0.5
		if score > bestScore {
			best, bestScore, bestRatio = t, score, ratio
		}
	}

	minMatched := 1.0
	if len(userTokens) >= 2 {
		minMatched = 2
	}
	if best != nil && (bestRatio >= config.C.Thresholds.ResolveRatio || bestScore >= minMatched) {
		return &Location{Terminal: *best, Rule: RuleToken}, true
	}
	return nil, false
}

// resolveContains is the tolerant pass: equal name, equal id, or name containing the query.
func (gr *GeoResolver) resolveContains(name string) (*Location, bool) {
	target := gr.index.Normalizer().Normalize(name)
	if target == "" {
		return nil, false
	}
	terminals := gr.index.Terminals()
	for i := range terminals {
		t := terminals[i]
		if t.Name == "" {
			continue
		}
		if t.Normalized == target || t.NormalizedID == target || strings.Contains(t.Normalized, target) {
			return &Location{Terminal: t, Rule: RuleContains}, true
		}
	}
	return nil, false
}

// ResolveOrigin runs the full fallback chain: origin by name, origin by
// contains/id, destination as origin, current terminal, first terminal.
// It returns nil only when the dataset has no terminals.
func (gr *GeoResolver) ResolveOrigin(origin, destination, currentTerminalID string) *Location {
	if strings.TrimSpace(origin) != "" {
		if loc, ok := gr.Resolve(origin); ok {
			return loc
		}
		if loc, ok := gr.resolveContains(origin); ok {
			return loc
		}
	}
	if strings.TrimSpace(destination) != "" {
		if loc, ok := gr.Resolve(destination); ok {
			loc.Rule = RuleDestination
			return loc
		}
	}

	terminals := gr.index.Terminals()
	if currentTerminalID != "" {
		for _, t := range terminals {
			if t.TerminalID == currentTerminalID {
				return &Location{Terminal: t, Rule: RuleCurrent}
			}
		}
	}
	if len(terminals) == 0 {
		return nil
	}

	gr.logger.Debug("Origin unresolved, using first terminal",
		zap.String("origin", origin),
		zap.String("destination", destination))
	return &Location{Terminal: terminals[0], Rule: RuleFirst}
}
