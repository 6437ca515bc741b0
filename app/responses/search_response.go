package responses

import (
	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/navigation"
	"github.com/busvas-search/internal/view"
)

type SearchResponse struct {
	Result           *models.SearchResult `json:"result"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
}

type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type ListResponse struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

type MapLinksResponse struct {
	Links map[string]string `json:"links"`
}

// SessionResponse is a session with its current view
type SessionResponse struct {
	ID          string              `json:"id"`
	Owner       string              `json:"owner,omitempty"`
	CreatedAt   string              `json:"created_at"`
	State       view.State          `json:"state"`
	LastOutcome *OutcomeResponse `json:"last_outcome,omitempty"`
}

// OutcomeResponse is the serializable summary of a finished navigation
type OutcomeResponse struct {
	ProvinceID string                 `json:"province_id,omitempty"`
	TerminalID string                 `json:"terminal_id,omitempty"`
	Rule       string                 `json:"rule,omitempty"`
	NoMatches  bool                   `json:"no_matches"`
	Highlights []navigation.Highlight `json:"highlights"`
}

func NewOutcomeResponse(out *navigation.Outcome) *OutcomeResponse {
	if out == nil {
		return nil
	}
	r := &OutcomeResponse{NoMatches: out.NoMatches, Highlights: out.Highlights}
	if r.Highlights == nil {
		r.Highlights = []navigation.Highlight{}
	}
	if out.Location != nil {
		r.ProvinceID = out.Location.ProvinceID()
		r.TerminalID = out.Location.TerminalID()
		r.Rule = string(out.Location.Rule)
	}
	return r
}

// SubmitResponse acknowledges a navigation; progress arrives on the event feed
type SubmitResponse struct {
	SessionID string             `json:"session_id"`
	Query     models.SearchQuery `json:"query"`
	Events    string             `json:"events"`
}

type FavoritesResponse struct {
	Owner  string                 `json:"owner"`
	Routes []models.FavoriteRoute `json:"routes"`
	Added  *bool                  `json:"added,omitempty"`
}
