package models

// SearchQuery is the user input as typed and after fuzzy correction.
type SearchQuery struct {
	Origin               string `json:"origin"`
	Destination          string `json:"destination"`
	CorrectedOrigin      string `json:"corrected_origin"`
	CorrectedDestination string `json:"corrected_destination"`
}

// ResolvedLocation is where the origin resolved to and by which rule.
type ResolvedLocation struct {
	ProvinceID   string `json:"province_id"`
	ProvinceName string `json:"province_name"`
	TerminalID   string `json:"terminal_id"`
	TerminalName string `json:"terminal_name"`
	Rule         string `json:"rule"`
}

// MatchedRoute is one accepted cooperative with the route that scored best.
type MatchedRoute struct {
	CooperativeID   string   `json:"cooperative_id"`
	CooperativeName string   `json:"cooperative_name"`
	TerminalID      string   `json:"terminal_id"`
	Destination     string   `json:"destination"`
	Schedules       []string `json:"schedules"`
	Price           string   `json:"price,omitempty"`
	Score           float64  `json:"score"`
	DestRatio       float64  `json:"dest_ratio"`
	OrigRatio       float64  `json:"orig_ratio"`
}

type SearchResult struct {
	Query          SearchQuery       `json:"query"`
	Location       *ResolvedLocation `json:"location,omitempty"`
	Matches        []MatchedRoute    `json:"matches"`
	Fingerprint    string            `json:"fingerprint"`
	DatasetVersion string            `json:"dataset_version"`
	Status         string            `json:"status"` // matched | no_matches | no_destination
}

const (
	StatusMatched       = "matched"
	StatusNoMatches     = "no_matches"
	StatusNoDestination = "no_destination"
)
