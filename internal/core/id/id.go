// Package id generates the time-ordered identifiers of append-only records.
package id

import (
	"github.com/google/uuid"
)

// ID is a UUID.
type ID = uuid.UUID

// New returns a UUIDv7. Its leading timestamp keeps inserts appending to the
// end of the primary key index and lets records sort by creation time.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts a string to an ID.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}
