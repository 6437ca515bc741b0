package utils

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateID returns a new lexicographically sortable id
func GenerateID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// IsValidID reports whether s parses as an id from GenerateID
func IsValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
