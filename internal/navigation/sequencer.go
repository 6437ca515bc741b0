package navigation

import (
	"context"
	"time"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/internal/metrics"
	"github.com/busvas-search/internal/parser"
	"github.com/busvas-search/internal/search"
	"github.com/busvas-search/internal/view"
	"go.uber.org/zap"
)

// Steps reported on the event feed, in the order a full run emits them.
const (
	StepOriginResolved   = "origin_resolved"
	StepProvinceShown    = "province_shown"
	StepTerminalShown    = "terminal_shown"
	StepCooperativesShow = "cooperatives_shown"
	StepNoMatches        = "no_matches"
	StepCardOpened       = "card_opened"
	StepRouteHighlighted = "route_highlighted"
	StepCompleted        = "completed"
	StepCanceled         = "canceled"
)

const (
	OutcomeCompleted = "completed"
	OutcomeNoMatches = "no_matches"
	OutcomeCanceled  = "canceled"
)

// Event is one visible step of a navigation run.
type Event struct {
	Step   string    `json:"step"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Highlight is a route the run marked on the view.
type Highlight struct {
	CooperativeID   string  `json:"cooperative_id"`
	CooperativeName string  `json:"cooperative_name"`
	Destination     string  `json:"destination"`
	RouteIndex      int     `json:"route_index"`
	Score           float64 `json:"score"`
}

// Outcome summarizes a finished run.
type Outcome struct {
	Location   *parser.Location
	Matches    []parser.MatchCandidate
	Highlights []Highlight
	NoMatches  bool
}

// Sequencer drives a view through province, terminal and cooperative
// selection, then opens and highlights each matching cooperative in turn.
type Sequencer struct {
	index    *search.RouteIndex
	resolver *parser.GeoResolver
	matcher  *parser.RouteMatcher
	pacing   config.Pacing
	logger   *zap.Logger
}

func NewSequencer(index *search.RouteIndex, logger *zap.Logger) *Sequencer {
	return &Sequencer{
		index:    index,
		resolver: parser.NewGeoResolver(index, logger),
		matcher:  parser.NewRouteMatcher(index),
		pacing:   config.C.Pacing,
		logger:   logger,
	}
}

// WithPacing returns a copy of the sequencer using other delays.
func (s *Sequencer) WithPacing(p config.Pacing) *Sequencer {
	cp := *s
	cp.pacing = p
	return &cp
}

// Navigate runs the whole sequence on v. The only error it returns is the
// context's, when the run is cancelled at one of its waits.
func (s *Sequencer) Navigate(ctx context.Context, v *view.View, origin, destination string, emit func(Event)) (*Outcome, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	out, err := s.navigate(ctx, v, origin, destination, emit)
	switch {
	case err != nil:
		emit(Event{Step: StepCanceled, At: time.Now()})
		metrics.IncNavigation(OutcomeCanceled)
	case out.NoMatches:
		metrics.IncNavigation(OutcomeNoMatches)
	default:
		emit(Event{Step: StepCompleted, At: time.Now()})
		metrics.IncNavigation(OutcomeCompleted)
	}
	return out, err
}

func (s *Sequencer) navigate(ctx context.Context, v *view.View, origin, destination string, emit func(Event)) (*Outcome, error) {
	out := &Outcome{}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	_, currentTerminal := v.Current()
	loc := s.resolver.ResolveOrigin(origin, destination, currentTerminal)
	if loc == nil {
		s.logger.Debug("Dataset has no terminals, nothing to navigate")
		out.NoMatches = true
		return out, nil
	}
	out.Location = loc
	emit(Event{Step: StepOriginResolved, Detail: loc.Terminal.Name + " (" + string(loc.Rule) + ")", At: time.Now()})

	if _, err := s.await(ctx, v.SelectProvince(loc.ProvinceID()), s.pacing.TerminalsTimeout()); err != nil {
		return out, err
	}
	emit(Event{Step: StepProvinceShown, Detail: loc.ProvinceID(), At: time.Now()})
	if err := pause(ctx, s.pacing.StepDelay()); err != nil {
		return out, err
	}

	cardsReady := v.SelectTerminal(loc.TerminalID())
	emit(Event{Step: StepTerminalShown, Detail: loc.TerminalID(), At: time.Now()})
	if err := pause(ctx, s.pacing.StepDelay()); err != nil {
		return out, err
	}
	if _, err := s.await(ctx, cardsReady, s.pacing.CooperativesTimeout()); err != nil {
		return out, err
	}
	if err := pause(ctx, s.pacing.StepDelay()); err != nil {
		return out, err
	}

	v.ShowSection(view.SectionCooperative)
	emit(Event{Step: StepCooperativesShow, At: time.Now()})
	if err := pause(ctx, s.pacing.StepDelay()); err != nil {
		return out, err
	}

	if destination == "" {
		return out, nil
	}
	if v.CooperativeCount() == 0 {
		out.NoMatches = true
		emit(Event{Step: StepNoMatches, Detail: destination, At: time.Now()})
		return out, nil
	}
	if err := pause(ctx, s.pacing.ScrollDelay()); err != nil {
		return out, err
	}
	return out, s.highlightDestination(ctx, v, loc, destination, out, emit)
}

// highlightDestination opens every matching card of the terminal in rank
// order and highlights the best route of each.
func (s *Sequencer) highlightDestination(ctx context.Context, v *view.View, loc *parser.Location, destination string, out *Outcome, emit func(Event)) error {
	matchOrigin := loc.Terminal.Name
	scope := s.index.ScopeSeq(loc.Terminal.Seq)

	matches := s.matcher.FindMatches(scope, matchOrigin, destination)
	out.Matches = matches
	if len(matches) == 0 {
		out.NoMatches = true
		emit(Event{Step: StepNoMatches, Detail: destination, At: time.Now()})
		return nil
	}

	v.HighlightCard(matches[0].Card.Cooperative)
	for _, m := range matches {
		card := m.Card.Cooperative
		v.ScrollTo(card)
		if err := pause(ctx, s.pacing.ScrollDelay()); err != nil {
			return err
		}

		ready, err := s.await(ctx, v.ExpandCooperative(card), s.pacing.RoutesTimeout())
		if err != nil {
			return err
		}
		if !ready {
			s.logger.Debug("Routes not rendered in time", zap.String("cooperative", m.Best.CooperativeID))
		}
		emit(Event{Step: StepCardOpened, Detail: m.Best.CooperativeName, At: time.Now()})
		if err := pause(ctx, s.pacing.RouteDelay()); err != nil {
			return err
		}

		best, _ := s.matcher.BestRouteInCooperative(parser.CardRecords(scope, m.Card), matchOrigin, destination)
		if best == nil {
			best = m.Best
		}
		if v.HighlightRoute(card, best.RouteIdx) {
			out.Highlights = append(out.Highlights, Highlight{
				CooperativeID:   best.CooperativeID,
				CooperativeName: best.CooperativeName,
				Destination:     best.Destination,
				RouteIndex:      best.RouteIdx,
				Score:           m.Score,
			})
			emit(Event{Step: StepRouteHighlighted, Detail: best.CooperativeName + ": " + best.Destination, At: time.Now()})
		}
		if err := pause(ctx, s.pacing.RouteDelay()); err != nil {
			return err
		}
	}
	return nil
}

// await waits for a readiness signal. Hitting the timeout is not an error;
// a zero timeout waits for the signal or cancellation only.
func (s *Sequencer) await(ctx context.Context, ready <-chan struct{}, timeout time.Duration) (bool, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-ready:
		return true, nil
	case <-expired:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
