package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchCache is a persisted search result
type SearchCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint    string             `bson:"fingerprint" json:"fingerprint"`
	Origin         string             `bson:"origin" json:"origin"`
	Destination    string             `bson:"destination" json:"destination"`
	Result         SearchResult       `bson:"result" json:"result"`
	MatchCount     int                `bson:"match_count" json:"match_count"`
	DatasetVersion string             `bson:"dataset_version" json:"dataset_version"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

func NewSearchCache(fingerprint string, result SearchResult) *SearchCache {
	now := time.Now()
	return &SearchCache{
		Fingerprint:    fingerprint,
		Origin:         result.Query.Origin,
		Destination:    result.Query.Destination,
		Result:         result,
		MatchCount:     len(result.Matches),
		DatasetVersion: result.DatasetVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}

// IsExpired reports whether the entry is older than ttl
func (sc *SearchCache) IsExpired(ttl time.Duration) bool {
	return time.Since(sc.CreatedAt) > ttl
}

func (sc *SearchCache) IsValidDatasetVersion(currentVersion string) bool {
	return sc.DatasetVersion == currentVersion
}
