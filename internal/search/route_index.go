package search

import (
	"regexp"
	"strings"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/normalizer"
)

// reRouteSplit splits "A - B", "A a B", "A to B", "A hasta B".
var reRouteSplit = regexp.MustCompile(`(?i)[-–—]| a | to | hasta `)

// CandidateText is a text with its normalized form and tokens precomputed.
type CandidateText struct {
	Text       string   `json:"text"`
	Normalized string   `json:"normalized"`
	Tokens     []string `json:"tokens"`
}

func newCandidateText(tn *normalizer.TextNormalizer, text string) CandidateText {
	norm := tn.Normalize(text)
	return CandidateText{Text: text, Normalized: norm, Tokens: normalizer.SplitTokens(norm)}
}

// CardKey identifies one cooperative card: a cooperative as listed under one terminal.
type CardKey struct {
	Terminal    int
	Cooperative int
}

// RouteRecord is one route of one cooperative card with every text the
// matcher compares against.
type RouteRecord struct {
	ProvinceIdx     int
	TerminalIdx     int // within the province
	TerminalSeq     int // position in RouteIndex.Terminals()
	CoopIdx         int
	RouteIdx        int
	ProvinceID      string
	TerminalID      string
	TerminalName    string
	CooperativeID   string
	CooperativeName string
	Destination     string

	// FullText is the visible text of the route row: origin, destination, times, price.
	FullText       string
	DestCandidates []CandidateText
	Origin         CandidateText
}

func (r *RouteRecord) Card() CardKey {
	return CardKey{Terminal: r.TerminalSeq, Cooperative: r.CoopIdx}
}

// TerminalEntry is a terminal in dataset order with its normalized name and id.
type TerminalEntry struct {
	ProvinceIdx  int
	TerminalIdx  int
	Seq          int
	ProvinceID   string
	TerminalID   string
	Name         string
	Normalized   string
	NormalizedID string
	Tokens       []string
}

// RouteIndex is built once per dataset load and never mutated afterwards.
type RouteIndex struct {
	dataset    *models.Dataset
	version    string
	normalizer *normalizer.TextNormalizer

	records    []RouteRecord
	terminals  []TerminalEntry
	byTerminal map[string][]int
	bySeq      [][]int
	byToken    map[string][]int
}

// BuildRouteIndex walks the dataset in order and precomputes every candidate text.
func BuildRouteIndex(ds *models.Dataset, version string, tn *normalizer.TextNormalizer) *RouteIndex {
	if ds == nil {
		ds = &models.Dataset{}
	}
	idx := &RouteIndex{
		dataset:    ds,
		version:    version,
		normalizer: tn,
		byTerminal: make(map[string][]int),
		byToken:    make(map[string][]int),
	}

	terminalSeq := 0
	for pi, p := range ds.Provinces {
		for ti, t := range p.Terminals {
			norm := tn.Normalize(t.Name)
			idx.terminals = append(idx.terminals, TerminalEntry{
				ProvinceIdx:  pi,
				TerminalIdx:  ti,
				Seq:          terminalSeq,
				ProvinceID:   p.ID,
				TerminalID:   t.ID,
				Name:         t.Name,
				Normalized:   norm,
				NormalizedID: tn.Normalize(t.ID),
				Tokens:       normalizer.SplitTokens(norm),
			})
			idx.bySeq = append(idx.bySeq, nil)

			for ci, c := range t.Cooperatives {
				for ri, r := range c.Routes {
					rec := buildRecord(tn, p, t, c, r)
					rec.ProvinceIdx, rec.TerminalIdx, rec.TerminalSeq, rec.CoopIdx, rec.RouteIdx = pi, ti, terminalSeq, ci, ri
					pos := len(idx.records)
					idx.records = append(idx.records, rec)
					idx.byTerminal[t.ID] = append(idx.byTerminal[t.ID], pos)
					idx.bySeq[terminalSeq] = append(idx.bySeq[terminalSeq], pos)

					seen := make(map[string]bool)
					for _, tok := range rec.DestCandidates[0].Tokens {
						if !seen[tok] {
							seen[tok] = true
							idx.byToken[tok] = append(idx.byToken[tok], pos)
						}
					}
				}
			}
			terminalSeq++
		}
	}
	return idx
}

func buildRecord(tn *normalizer.TextNormalizer, p models.Province, t models.Terminal, c models.Cooperative, r models.Route) RouteRecord {
	full := routeFullText(t.Name, r)

	dest := []CandidateText{newCandidateText(tn, r.Destination)}
	var origins []string
	if t.Name != "" {
		origins = append(origins, t.Name)
	}
	if parts := splitRouteText(full); len(parts) >= 2 {
		dest = append(dest, newCandidateText(tn, parts[len(parts)-1]))
		origins = append(origins, parts[0])
	}
	dest = append(dest, newCandidateText(tn, full))

	return RouteRecord{
		ProvinceID:      p.ID,
		TerminalID:      t.ID,
		TerminalName:    t.Name,
		CooperativeID:   c.ID,
		CooperativeName: c.Name,
		Destination:     r.Destination,
		FullText:        full,
		DestCandidates:  dest,
		Origin:          newCandidateText(tn, strings.Join(origins, " ")),
	}
}

func routeFullText(terminal string, r models.Route) string {
	parts := []string{terminal, r.Destination}
	parts = append(parts, r.Schedules...)
	if !r.Cost.IsZero() {
		parts = append(parts, "$"+r.Cost.Text)
	}
	return strings.Join(parts, " ")
}

func splitRouteText(s string) []string {
	var out []string
	for _, p := range reRouteSplit.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (idx *RouteIndex) Dataset() *models.Dataset              { return idx.dataset }
func (idx *RouteIndex) Version() string                       { return idx.version }
func (idx *RouteIndex) Normalizer() *normalizer.TextNormalizer { return idx.normalizer }
func (idx *RouteIndex) Terminals() []TerminalEntry            { return idx.terminals }
func (idx *RouteIndex) Len() int                              { return len(idx.records) }

// All returns every record in dataset order.
func (idx *RouteIndex) All() []*RouteRecord {
	out := make([]*RouteRecord, len(idx.records))
	for i := range idx.records {
		out[i] = &idx.records[i]
	}
	return out
}

// Scope returns the records of every terminal with terminalID. Ids are only
// unique within a province; use ScopeSeq for the routes one terminal view shows.
func (idx *RouteIndex) Scope(terminalID string) []*RouteRecord {
	return idx.pick(idx.byTerminal[terminalID])
}

// ScopeSeq returns the records of the terminal at position seq of Terminals().
func (idx *RouteIndex) ScopeSeq(seq int) []*RouteRecord {
	if seq < 0 || seq >= len(idx.bySeq) {
		return []*RouteRecord{}
	}
	return idx.pick(idx.bySeq[seq])
}

// ByToken returns records whose destination contains the normalized token.
func (idx *RouteIndex) ByToken(token string) []*RouteRecord {
	return idx.pick(idx.byToken[token])
}

func (idx *RouteIndex) pick(positions []int) []*RouteRecord {
	out := make([]*RouteRecord, 0, len(positions))
	for _, p := range positions {
		out = append(out, &idx.records[p])
	}
	return out
}

// DestinationsFor returns records whose destination holds every token of name.
func (idx *RouteIndex) DestinationsFor(name string) []*RouteRecord {
	tokens := idx.normalizer.Tokenize(name)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[int]int)
	for _, tok := range uniq(tokens) {
		for _, p := range idx.byToken[tok] {
			counts[p]++
		}
	}
	want := len(uniq(tokens))
	var positions []int
	for p := range idx.records {
		if counts[p] == want {
			positions = append(positions, p)
		}
	}
	return idx.pick(positions)
}

func uniq(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Cooperative returns the dataset cooperative behind a record.
func (idx *RouteIndex) Cooperative(rec *RouteRecord) *models.Cooperative {
	t := idx.terminalAt(rec.TerminalSeq)
	if t == nil || rec.CoopIdx >= len(t.Cooperatives) {
		return nil
	}
	return &t.Cooperatives[rec.CoopIdx]
}

func (idx *RouteIndex) Route(rec *RouteRecord) *models.Route {
	c := idx.Cooperative(rec)
	if c == nil || rec.RouteIdx >= len(c.Routes) {
		return nil
	}
	return &c.Routes[rec.RouteIdx]
}

func (idx *RouteIndex) terminalAt(seq int) *models.Terminal {
	if seq < 0 || seq >= len(idx.terminals) {
		return nil
	}
	e := idx.terminals[seq]
	return &idx.dataset.Provinces[e.ProvinceIdx].Terminals[e.TerminalIdx]
}

// TerminalNames lists distinct terminal names in dataset order.
func (idx *RouteIndex) TerminalNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range idx.terminals {
		if t.Name == "" || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t.Name)
	}
	return out
}
