package view

import (
	"sync"
	"time"

	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/search"
	"go.uber.org/zap"
)

type Section string

const (
	SectionHome        Section = "home"
	SectionProvince    Section = "province"
	SectionTerminal    Section = "terminal"
	SectionCooperative Section = "cooperative"
)

// TimeSlot is one departure time of a route row. Price is the cost text as
// published, the same value favorites are keyed on; PriceLabel is for display.
type TimeSlot struct {
	Cooperative     string `json:"coop"`
	Origin          string `json:"origen"`
	Destination     string `json:"destino"`
	Time            string `json:"hora"`
	Price           string `json:"precio"`
	PriceLabel      string `json:"precio_label,omitempty"`
	SearchHighlight bool   `json:"search_highlight"`
	Active          bool   `json:"active"`
}

func (ts TimeSlot) Favorite() models.FavoriteRoute {
	return models.FavoriteRoute{
		Cooperative: ts.Cooperative,
		Origin:      ts.Origin,
		Destination: ts.Destination,
		Time:        ts.Time,
		Price:       ts.Price,
	}
}

type RouteRow struct {
	Index       int        `json:"index"`
	Label       string     `json:"label"`
	Destination string     `json:"destination"`
	Highlighted bool       `json:"highlighted"`
	Times       []TimeSlot `json:"times"`
}

type CooperativeCard struct {
	Index       int           `json:"index"`
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Phones      models.Phones `json:"phones"`
	Rating      float64       `json:"rating"`
	Expanded    bool          `json:"expanded"`
	Highlighted bool          `json:"highlighted"`
	Routes      []RouteRow    `json:"routes,omitempty"`

	routesRendered bool
}

type TerminalCard struct {
	Index        int    `json:"index"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	Cooperatives int    `json:"cooperatives"`
}

// State is what a client of the session sees.
type State struct {
	Version      uint64            `json:"version"`
	Section      Section           `json:"section"`
	ProvinceID   string            `json:"province_id,omitempty"`
	ProvinceName string            `json:"province_name,omitempty"`
	TerminalID   string            `json:"terminal_id,omitempty"`
	TerminalName string            `json:"terminal_name,omitempty"`
	Terminals    []TerminalCard    `json:"terminals,omitempty"`
	Cooperatives []CooperativeCard `json:"cooperatives,omitempty"`
	ScrolledTo   int               `json:"scrolled_to"`
}

// FavoriteCheck reports whether a route time is a favorite of the view's owner.
type FavoriteCheck func(models.FavoriteRoute) bool

// View is the navigation state of one session. Renders happen off the
// caller's goroutine and signal completion by closing the returned channel.
type View struct {
	mu          sync.Mutex
	index       *search.RouteIndex
	state       State
	renderGen   uint64
	renderDelay time.Duration
	isFavorite  FavoriteCheck
	logger      *zap.Logger
}

func New(index *search.RouteIndex, logger *zap.Logger) *View {
	return &View{
		index:  index,
		state:  State{Section: SectionHome, ScrolledTo: -1},
		logger: logger,
	}
}

// SetRenderDelay simulates render latency; zero renders as soon as the goroutine runs.
func (v *View) SetRenderDelay(d time.Duration) {
	v.mu.Lock()
	v.renderDelay = d
	v.mu.Unlock()
}

func (v *View) SetFavoriteCheck(fn FavoriteCheck) {
	v.mu.Lock()
	v.isFavorite = fn
	v.mu.Unlock()
}

func (v *View) Index() *search.RouteIndex { return v.index }

// Current returns the selected province and terminal ids.
func (v *View) Current() (provinceID, terminalID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.ProvinceID, v.state.TerminalID
}

// SelectProvince shows the province section and renders its terminal cards.
func (v *View) SelectProvince(provinceID string) <-chan struct{} {
	done := make(chan struct{})
	v.mu.Lock()
	p, ok := v.index.Dataset().FindProvince(provinceID)
	if !ok {
		v.mu.Unlock()
		v.logger.Debug("Province not in dataset", zap.String("province_id", provinceID))
		close(done)
		return done
	}
	v.renderGen++
	gen := v.renderGen
	v.state.Section = SectionProvince
	v.state.ProvinceID, v.state.ProvinceName = p.ID, p.Name
	v.state.TerminalID, v.state.TerminalName = "", ""
	v.state.Terminals = nil
	v.state.Cooperatives = nil
	v.state.ScrolledTo = -1
	v.state.Version++
	delay := v.renderDelay
	v.mu.Unlock()

	go func() {
		defer close(done)
		wait(delay)

		cards := make([]TerminalCard, 0, len(p.Terminals))
		for i, t := range p.Terminals {
			cards = append(cards, TerminalCard{Index: i, ID: t.ID, Name: t.Name, Cooperatives: len(t.Cooperatives)})
		}

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.renderGen {
			return
		}
		v.state.Terminals = cards
		v.state.Version++
	}()
	return done
}

// SelectTerminal shows the terminal section and renders its cooperative
// cards, the first one expanded.
func (v *View) SelectTerminal(terminalID string) <-chan struct{} {
	done := make(chan struct{})
	v.mu.Lock()
	p, t, ok := v.findTerminal(terminalID)
	if !ok {
		v.mu.Unlock()
		v.logger.Debug("Terminal not in dataset", zap.String("terminal_id", terminalID))
		close(done)
		return done
	}
	v.renderGen++
	gen := v.renderGen
	v.state.Section = SectionTerminal
	v.state.ProvinceID, v.state.ProvinceName = p.ID, p.Name
	v.state.TerminalID, v.state.TerminalName = t.ID, t.Name
	v.state.Cooperatives = nil
	v.state.ScrolledTo = -1
	v.state.Version++
	delay := v.renderDelay
	v.mu.Unlock()

	go func() {
		defer close(done)
		wait(delay)

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.renderGen {
			return
		}
		cards := make([]CooperativeCard, 0, len(t.Cooperatives))
		for i, c := range t.Cooperatives {
			cards = append(cards, CooperativeCard{
				Index:  i,
				ID:     c.ID,
				Name:   c.Name,
				Phones: c.Phones,
				Rating: models.AverageRating(c.RatingGlobal),
			})
		}
		v.state.Cooperatives = cards
		if len(cards) > 0 {
			v.expandLocked(0, t)
		}
		v.state.Version++
	}()
	return done
}

// findTerminal prefers the current province, since terminal ids are only
// expected to be unique within one.
func (v *View) findTerminal(terminalID string) (*models.Province, *models.Terminal, bool) {
	ds := v.index.Dataset()
	if p, ok := ds.FindProvince(v.state.ProvinceID); ok {
		for i := range p.Terminals {
			if p.Terminals[i].ID == terminalID {
				return p, &p.Terminals[i], true
			}
		}
	}
	return ds.FindTerminal(terminalID)
}

func (v *View) currentTerminal() *models.Terminal {
	_, t, ok := v.findTerminal(v.state.TerminalID)
	if !ok {
		return nil
	}
	return t
}

// ShowSection switches the visible section without re-rendering.
func (v *View) ShowSection(s Section) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state.Section != s {
		v.state.Section = s
		v.state.Version++
	}
}

func (v *View) CooperativeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.state.Cooperatives)
}

// ExpandCooperative opens a card and renders its routes. An open card, or
// one that does not exist, yields an already closed channel.
func (v *View) ExpandCooperative(card int) <-chan struct{} {
	done := make(chan struct{})
	v.mu.Lock()
	if card < 0 || card >= len(v.state.Cooperatives) {
		v.mu.Unlock()
		close(done)
		return done
	}
	c := &v.state.Cooperatives[card]
	if c.routesRendered {
		if !c.Expanded {
			c.Expanded = true
			v.state.Version++
		}
		v.mu.Unlock()
		close(done)
		return done
	}
	c.Expanded = true
	v.state.Version++
	gen := v.renderGen
	delay := v.renderDelay
	v.mu.Unlock()

	go func() {
		defer close(done)
		wait(delay)

		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.renderGen || card >= len(v.state.Cooperatives) {
			return
		}
		if t := v.currentTerminal(); t != nil {
			v.expandLocked(card, t)
			v.state.Version++
		}
	}()
	return done
}

func (v *View) expandLocked(card int, t *models.Terminal) {
	c := &v.state.Cooperatives[card]
	c.Expanded = true
	if c.routesRendered || card >= len(t.Cooperatives) {
		return
	}
	coop := t.Cooperatives[card]
	rows := make([]RouteRow, 0, len(coop.Routes))
	for ri, r := range coop.Routes {
		row := RouteRow{Index: ri, Label: t.Name + " - " + r.Destination, Destination: r.Destination}
		label := ""
		if !r.Cost.IsZero() {
			label = "$" + r.Cost.Text
		}
		for _, tm := range r.Schedules {
			slot := TimeSlot{Cooperative: coop.Name, Origin: t.Name, Destination: r.Destination, Time: tm, Price: r.Cost.Text, PriceLabel: label}
			if v.isFavorite != nil {
				slot.Active = v.isFavorite(slot.Favorite())
			}
			row.Times = append(row.Times, slot)
		}
		rows = append(rows, row)
	}
	c.Routes = rows
	c.routesRendered = true
}

// RoutesRendered reports whether a card's route rows exist.
func (v *View) RoutesRendered(card int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return card >= 0 && card < len(v.state.Cooperatives) && v.state.Cooperatives[card].routesRendered
}

func (v *View) ScrollTo(card int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if card < 0 || card >= len(v.state.Cooperatives) {
		return
	}
	v.state.ScrolledTo = card
	v.state.Version++
}

func (v *View) HighlightCard(card int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if card < 0 || card >= len(v.state.Cooperatives) {
		return
	}
	v.state.Cooperatives[card].Highlighted = true
	v.state.Version++
}

// HighlightRoute marks a route row and every one of its times. Missing rows are ignored.
func (v *View) HighlightRoute(card, route int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if card < 0 || card >= len(v.state.Cooperatives) {
		return false
	}
	routes := v.state.Cooperatives[card].Routes
	for i := range routes {
		if routes[i].Index != route {
			continue
		}
		routes[i].Highlighted = true
		for j := range routes[i].Times {
			routes[i].Times[j].SearchHighlight = true
		}
		v.state.Version++
		return true
	}
	return false
}

// ToggleAll expands every card if any is collapsed, otherwise collapses all of them.
func (v *View) ToggleAll() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	anyCollapsed := false
	for _, c := range v.state.Cooperatives {
		if !c.Expanded {
			anyCollapsed = true
			break
		}
	}
	t := v.currentTerminal()
	for i := range v.state.Cooperatives {
		if anyCollapsed && t != nil {
			v.expandLocked(i, t)
		} else {
			v.state.Cooperatives[i].Expanded = false
		}
	}
	v.state.Version++
	return v.snapshotLocked()
}

// MarkFavorites recomputes the active flag of every rendered time.
func (v *View) MarkFavorites() {
	v.mu.Lock()
	defer v.mu.Unlock()
	changed := false
	for ci := range v.state.Cooperatives {
		for ri := range v.state.Cooperatives[ci].Routes {
			times := v.state.Cooperatives[ci].Routes[ri].Times
			for ti := range times {
				active := v.isFavorite != nil && v.isFavorite(times[ti].Favorite())
				if times[ti].Active != active {
					times[ti].Active = active
					changed = true
				}
			}
		}
	}
	if changed {
		v.state.Version++
	}
}

func (v *View) Version() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Version
}

// Snapshot returns a deep copy safe to serialize while the view keeps changing.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() State {
	s := v.state
	s.Terminals = append([]TerminalCard(nil), v.state.Terminals...)
	s.Cooperatives = make([]CooperativeCard, len(v.state.Cooperatives))
	for i, c := range v.state.Cooperatives {
		cc := c
		cc.Routes = make([]RouteRow, len(c.Routes))
		for j, r := range c.Routes {
			rr := r
			rr.Times = append([]TimeSlot(nil), r.Times...)
			cc.Routes[j] = rr
		}
		s.Cooperatives[i] = cc
	}
	return s
}

func wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
