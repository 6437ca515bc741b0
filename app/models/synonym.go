package models

// SynonymEntry maps textual variants of a place to one canonical token.
type SynonymEntry struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Variants  []string `json:"variants" yaml:"variants"`
}

// SynonymFile is the wrapped form of the synonym resource: {"entries": [...]}
type SynonymFile struct {
	Entries []SynonymEntry `json:"entries"`
}
