package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MatchWeights are the route matcher scoring weights
type MatchWeights struct {
	DestMatched float64 `yaml:"dest_matched" json:"dest_matched"`
	OrigMatched float64 `yaml:"orig_matched" json:"orig_matched"`
	DestRatio   float64 `yaml:"dest_ratio" json:"dest_ratio"`
	OrigRatio   float64 `yaml:"orig_ratio" json:"orig_ratio"`
	ExactBoost  float64 `yaml:"exact_boost" json:"exact_boost"`
}

type Thresholds struct {
	MinDestRatio     float64 `yaml:"min_dest_ratio" json:"min_dest_ratio"`
	MinOrigRatio     float64 `yaml:"min_orig_ratio" json:"min_orig_ratio"`
	MissingOrigRatio float64 `yaml:"missing_orig_ratio" json:"missing_orig_ratio"`
	ResolveRatio     float64 `yaml:"resolve_ratio" json:"resolve_ratio"`
	FuzzyDistance    int     `yaml:"fuzzy_distance" json:"fuzzy_distance"`
}

// Pacing are the visible delays of the navigation sequence, in milliseconds.
type Pacing struct {
	StepDelayMs           int `yaml:"step_delay_ms" json:"step_delay_ms"`
	ScrollDelayMs         int `yaml:"scroll_delay_ms" json:"scroll_delay_ms"`
	RouteDelayMs          int `yaml:"route_delay_ms" json:"route_delay_ms"`
	TerminalsTimeoutMs    int `yaml:"terminals_timeout_ms" json:"terminals_timeout_ms"`
	CooperativesTimeoutMs int `yaml:"cooperatives_timeout_ms" json:"cooperatives_timeout_ms"`
	RoutesTimeoutMs       int `yaml:"routes_timeout_ms" json:"routes_timeout_ms"`
	SubmitDebounceMs      int `yaml:"submit_debounce_ms" json:"submit_debounce_ms"`
}

type SearchCfg struct {
	MaxCooperatives  int          `yaml:"max_cooperatives" json:"max_cooperatives"`
	SuggestionLimit  int          `yaml:"suggestion_limit" json:"suggestion_limit"`
	FavoritesBackend string       `yaml:"favorites_backend" json:"favorites_backend"`
	Weights          MatchWeights `yaml:"weights" json:"weights"`
	Thresholds       Thresholds   `yaml:"thresholds" json:"thresholds"`
	Pacing           Pacing       `yaml:"pacing" json:"pacing"`
}

var C = Defaults()

// Defaults returns the built-in tunables used when no yaml file is loaded
func Defaults() SearchCfg {
	return SearchCfg{
		MaxCooperatives:  8,
		SuggestionLimit:  10,
		FavoritesBackend: "badger",
		Weights: MatchWeights{
			DestMatched: 2,
			OrigMatched: 1,
			DestRatio:   1,
			OrigRatio:   0.8,
			ExactBoost:  1000,
		},
		Thresholds: Thresholds{
			MinDestRatio:     0.6,
			MinOrigRatio:     0.4,
			MissingOrigRatio: 0.5,
			ResolveRatio:     0.5,
			FuzzyDistance:    2,
		},
		Pacing: Pacing{
			StepDelayMs:           1000,
			ScrollDelayMs:         250,
			RouteDelayMs:          1000,
			TerminalsTimeoutMs:    2000,
			CooperativesTimeoutMs: 3000,
			RoutesTimeoutMs:       3000,
			SubmitDebounceMs:      300,
		},
	}
}

// Load reads the yaml file on top of the defaults
func Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return err
	}
	// ENV overrides
	if backend := os.Getenv("FAVORITES_BACKEND"); backend != "" {
		cfg.FavoritesBackend = backend
	}
	C = cfg
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (p Pacing) StepDelay() time.Duration           { return ms(p.StepDelayMs) }
func (p Pacing) ScrollDelay() time.Duration         { return ms(p.ScrollDelayMs) }
func (p Pacing) RouteDelay() time.Duration          { return ms(p.RouteDelayMs) }
func (p Pacing) TerminalsTimeout() time.Duration    { return ms(p.TerminalsTimeoutMs) }
func (p Pacing) CooperativesTimeout() time.Duration { return ms(p.CooperativesTimeoutMs) }
func (p Pacing) RoutesTimeout() time.Duration       { return ms(p.RoutesTimeoutMs) }
func (p Pacing) SubmitDebounce() time.Duration      { return ms(p.SubmitDebounceMs) }
