package normalizer

import (
	_ "embed"
	"encoding/json"

	"github.com/busvas-search/app/models"
)

//go:embed data/default_synonyms.json
var defaultSynonymsJSON []byte

// DefaultSynonymEntries returns the synonym table that ships with the binary.
func DefaultSynonymEntries() []models.SynonymEntry {
	var entries []models.SynonymEntry
	if err := json.Unmarshal(defaultSynonymsJSON, &entries); err != nil {
		panic("normalizer: embedded synonyms are invalid: " + err.Error())
	}
	return entries
}
