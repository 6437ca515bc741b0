package services

import (
	"context"
	"testing"
	"time"

	"github.com/busvas-search/app/config"
	"github.com/busvas-search/internal/navigation"
	"github.com/busvas-search/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSessions(t *testing.T, favorites *FavoritesService, max int) *SessionService {
	t.Helper()
	ss, err := NewSessionService(newTestCatalog(nil), favorites, max, zap.NewNop())
	require.NoError(t, err)
	ss.SetPacing(config.Pacing{})
	t.Cleanup(ss.Close)
	return ss
}

// waitFor reads events until step shows up and returns every step seen
func waitFor(t *testing.T, events <-chan navigation.Event, step string) []string {
	t.Helper()
	var seen []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event feed closed before %s", step)
			seen = append(seen, e.Step)
			if e.Step == step {
				return seen
			}
		case <-timeout:
			t.Fatalf("no %s event, saw %v", step, seen)
		}
	}
}

func TestSessionService_SubmitNavigates(t *testing.T) {
	ss := newTestSessions(t, nil, 4)

	s, err := ss.Create("")
	require.NoError(t, err)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	q, err := ss.Submit(s.ID, " Riobamba ", "Quito")
	require.NoError(t, err)
	assert.Equal(t, "Riobamba", q.Origin)

	steps := waitFor(t, events, navigation.StepCompleted)
	assert.Contains(t, steps, navigation.StepRouteHighlighted)

	// finish runs right after the last event
	require.Eventually(t, func() bool { return s.LastOutcome() != nil }, time.Second, 5*time.Millisecond)
	out := s.LastOutcome()
	require.Len(t, out.Highlights, 1)
	assert.Equal(t, "coopx", out.Highlights[0].CooperativeID)

	state, err := ss.Snapshot(s.ID)
	require.NoError(t, err)
	assert.Equal(t, view.SectionCooperative, state.Section)
	assert.Equal(t, "riobamba", state.TerminalID)
}

func TestSessionService_SubmitRejectsEmptyQuery(t *testing.T) {
	ss := newTestSessions(t, nil, 4)
	s, err := ss.Create("")
	require.NoError(t, err)

	_, err = ss.Submit(s.ID, "", " ")
	assert.Error(t, err)

	_, err = ss.Submit("missing", "Riobamba", "Quito")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_NewSubmitCancelsRunningOne(t *testing.T) {
	ss := newTestSessions(t, nil, 4)
	ss.SetPacing(config.Pacing{StepDelayMs: 50})

	s, err := ss.Create("")
	require.NoError(t, err)
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	_, err = ss.Submit(s.ID, "Riobamba", "Quito")
	require.NoError(t, err)
	waitFor(t, events, navigation.StepOriginResolved)

	_, err = ss.Submit(s.ID, "Terminal Quitumbe", "Guayaquil")
	require.NoError(t, err)

	steps := waitFor(t, events, navigation.StepCompleted)
	assert.Contains(t, steps, navigation.StepCanceled)

	require.Eventually(t, func() bool { return s.LastOutcome() != nil }, time.Second, 5*time.Millisecond)
	out := s.LastOutcome()
	assert.Equal(t, "quitumbe", out.Location.TerminalID())
	require.Len(t, out.Highlights, 1)
	assert.Equal(t, "esmeraldas", out.Highlights[0].CooperativeID)
}

func TestSessionService_Select(t *testing.T) {
	ss := newTestSessions(t, nil, 4)
	s, err := ss.Create("")
	require.NoError(t, err)
	ctx := context.Background()

	state, err := ss.Select(ctx, s.ID, "pichincha", "")
	require.NoError(t, err)
	assert.Equal(t, view.SectionProvince, state.Section)
	assert.Len(t, state.Terminals, 2)

	state, err = ss.Select(ctx, s.ID, "", "carcelen")
	require.NoError(t, err)
	assert.Equal(t, "carcelen", state.TerminalID)
	require.Len(t, state.Cooperatives, 1)
	assert.True(t, state.Cooperatives[0].Expanded)

	before := state.Version
	state, err = ss.Select(ctx, s.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, before, state.Version)
}

func TestSessionService_SelectHonorsContext(t *testing.T) {
	ss := newTestSessions(t, nil, 4)
	ss.SetRenderDelay(time.Second)
	s, err := ss.Create("")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = ss.Select(ctx, s.ID, "guayas", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSessionService_ToggleAll(t *testing.T) {
	ss := newTestSessions(t, nil, 4)
	s, err := ss.Create("")
	require.NoError(t, err)

	_, err = ss.Select(context.Background(), s.ID, "", "riobamba")
	require.NoError(t, err)

	state, err := ss.ToggleAll(s.ID)
	require.NoError(t, err)
	for _, c := range state.Cooperatives {
		assert.True(t, c.Expanded)
	}

	state, err = ss.ToggleAll(s.ID)
	require.NoError(t, err)
	for _, c := range state.Cooperatives {
		assert.False(t, c.Expanded)
	}
}

func TestSessionService_FavoritesMarkOpenViews(t *testing.T) {
	favorites := newTestFavorites(t)
	ss := newTestSessions(t, favorites, 4)
	s, err := ss.Create("ana")
	require.NoError(t, err)

	state, err := ss.Select(context.Background(), s.ID, "", "riobamba")
	require.NoError(t, err)
	slot := state.Cooperatives[0].Routes[0].Times[0]
	require.False(t, slot.Active)

	_, added, err := favorites.Toggle(context.Background(), "ana", slot.Favorite())
	require.NoError(t, err)
	require.True(t, added)

	state, err = ss.Snapshot(s.ID)
	require.NoError(t, err)
	assert.True(t, state.Cooperatives[0].Routes[0].Times[0].Active)
	assert.False(t, state.Cooperatives[0].Routes[0].Times[1].Active)
}

func TestSessionService_EvictsLeastRecentlyUsed(t *testing.T) {
	ss := newTestSessions(t, nil, 2)

	first, err := ss.Create("")
	require.NoError(t, err)
	events, _ := first.Subscribe()

	_, err = ss.Create("")
	require.NoError(t, err)
	_, err = ss.Create("")
	require.NoError(t, err)

	assert.Equal(t, 2, ss.Len())
	_, err = ss.Get(first.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// the evicted session closes its feeds
	_, open := <-events
	assert.False(t, open)
}

func TestSessionService_Delete(t *testing.T) {
	ss := newTestSessions(t, nil, 2)
	s, err := ss.Create("")
	require.NoError(t, err)

	require.NoError(t, ss.Delete(s.ID))
	assert.ErrorIs(t, ss.Delete(s.ID), ErrSessionNotFound)
	assert.Equal(t, 0, ss.Len())
}
