package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/app/models"
	"github.com/busvas-search/helpers/utils"
	"github.com/busvas-search/internal/metrics"
	"github.com/busvas-search/internal/navigation"
	"github.com/busvas-search/internal/parser"
	"github.com/busvas-search/internal/view"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("session not found")

const eventBuffer = 32

// Session is one browsing context: a view, its event feed and at most one
// navigation run in flight.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	view      *view.View
	debouncer *utils.Debouncer

	mu          sync.Mutex
	cancel      context.CancelFunc
	run         uint64
	subscribers map[int]chan navigation.Event
	nextSub     int
	closed      bool
	last        *navigation.Outcome
}

func (s *Session) View() *view.View { return s.view }

// LastOutcome is the outcome of the latest finished run, nil before any
func (s *Session) LastOutcome() *navigation.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Subscribe returns a feed of navigation events. Slow readers miss events
// rather than block the run.
func (s *Session) Subscribe() (<-chan navigation.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan navigation.Event, eventBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

func (s *Session) publish(e navigation.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// begin cancels the run in flight and returns a context for the next one
func (s *Session) begin() (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.run++
	return ctx, s.run
}

func (s *Session) finish(run uint64, out *navigation.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run != s.run {
		return
	}
	s.last = out
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Stop cancels any pending or running navigation
func (s *Session) Stop() {
	s.debouncer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) close() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// SessionService keeps a bounded registry of sessions; the least recently
// used one is closed when the registry is full.
type SessionService struct {
	catalog     *CatalogService
	favorites   *FavoritesService
	sessions    *lru.Cache[string, *Session]
	pacing      config.Pacing
	renderDelay time.Duration
	logger      *zap.Logger
}

// NewSessionService accepts a nil favorites service
func NewSessionService(catalog *CatalogService, favorites *FavoritesService, maxSessions int, logger *zap.Logger) (*SessionService, error) {
	sessions, err := lru.NewWithEvict[string, *Session](maxSessions, func(id string, s *Session) {
		s.close()
		logger.Debug("Session closed", zap.String("session_id", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	ss := &SessionService{
		catalog:   catalog,
		favorites: favorites,
		sessions:  sessions,
		pacing:    config.C.Pacing,
		logger:    logger,
	}
	if favorites != nil {
		favorites.OnChange(ss.refreshFavorites)
	}
	return ss, nil
}

// SetPacing replaces the delays used by runs started afterwards
func (ss *SessionService) SetPacing(p config.Pacing) {
	ss.pacing = p
}

// SetRenderDelay sets the simulated render latency of views created afterwards
func (ss *SessionService) SetRenderDelay(d time.Duration) {
	ss.renderDelay = d
}

func (ss *SessionService) Create(owner string) (*Session, error) {
	idx := ss.catalog.Index()
	if idx == nil {
		return nil, ErrDatasetEmpty
	}

	s := &Session{
		ID:          utils.GenerateID(),
		Owner:       owner,
		CreatedAt:   time.Now(),
		view:        view.New(idx, ss.logger),
		debouncer:   utils.NewDebouncer(ss.pacing.SubmitDebounce()),
		subscribers: make(map[int]chan navigation.Event),
	}
	s.view.SetRenderDelay(ss.renderDelay)
	if ss.favorites != nil && owner != "" {
		s.view.SetFavoriteCheck(func(r models.FavoriteRoute) bool {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return ss.favorites.IsFavorite(ctx, owner, r)
		})
	}

	ss.sessions.Add(s.ID, s)
	metrics.SetSessions(ss.sessions.Len())
	ss.logger.Debug("Session created", zap.String("session_id", s.ID), zap.String("owner", owner))
	return s, nil
}

func (ss *SessionService) Get(id string) (*Session, error) {
	s, ok := ss.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return s, nil
}

func (ss *SessionService) Delete(id string) error {
	if !ss.sessions.Remove(id) {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	metrics.SetSessions(ss.sessions.Len())
	return nil
}

func (ss *SessionService) Len() int {
	return ss.sessions.Len()
}

// Submit validates and corrects the query now, then starts the navigation
// once submits stop arriving for the debounce delay. A newer run cancels
// the one in flight.
func (ss *SessionService) Submit(id, origin, destination string) (models.SearchQuery, error) {
	s, err := ss.Get(id)
	if err != nil {
		return models.SearchQuery{}, err
	}
	q, err := parser.NewQueryParser(s.view.Index().Normalizer(), ss.logger).Prepare(origin, destination)
	if err != nil {
		return q, err
	}

	pacing := ss.pacing
	s.debouncer.Trigger(func() {
		ss.navigate(s, q, pacing)
	})
	return q, nil
}

func (ss *SessionService) navigate(s *Session, q models.SearchQuery, pacing config.Pacing) {
	ctx, run := s.begin()
	seq := navigation.NewSequencer(s.view.Index(), ss.logger).WithPacing(pacing)

	out, err := seq.Navigate(ctx, s.view, q.CorrectedOrigin, q.CorrectedDestination, s.publish)
	if errors.Is(err, context.Canceled) {
		ss.logger.Debug("Navigation canceled", zap.String("session_id", s.ID))
		return
	}
	s.finish(run, out)
}

// Select moves the view directly and waits for the render, cancelling any run
func (ss *SessionService) Select(ctx context.Context, id, provinceID, terminalID string) (view.State, error) {
	s, err := ss.Get(id)
	if err != nil {
		return view.State{}, err
	}
	s.Stop()

	var ready <-chan struct{}
	switch {
	case terminalID != "":
		ready = s.view.SelectTerminal(terminalID)
	case provinceID != "":
		ready = s.view.SelectProvince(provinceID)
	default:
		return s.view.Snapshot(), nil
	}

	select {
	case <-ready:
	case <-ctx.Done():
		return view.State{}, ctx.Err()
	}
	return s.view.Snapshot(), nil
}

func (ss *SessionService) ToggleAll(id string) (view.State, error) {
	s, err := ss.Get(id)
	if err != nil {
		return view.State{}, err
	}
	return s.view.ToggleAll(), nil
}

func (ss *SessionService) Snapshot(id string) (view.State, error) {
	s, err := ss.Get(id)
	if err != nil {
		return view.State{}, err
	}
	return s.view.Snapshot(), nil
}

func (ss *SessionService) refreshFavorites(owner string) {
	for _, id := range ss.sessions.Keys() {
		if s, ok := ss.sessions.Peek(id); ok && s.Owner == owner {
			s.view.MarkFavorites()
		}
	}
}

// Close stops every session
func (ss *SessionService) Close() {
	ss.sessions.Purge()
	metrics.SetSessions(0)
}
