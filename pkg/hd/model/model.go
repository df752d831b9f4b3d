package model

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// NewID generates a new random identifier.
func NewID() uuid.UUID {
	return uuid.New()
}

// ParseID parses a string into a UUID.
// Returns uuid.Nil if parsing fails.
func ParseID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// IsValidID checks if a UUID is valid (not nil).
func IsValidID(id uuid.UUID) bool {
	return id != uuid.Nil
}

// Now returns the current time in UTC with sub-second precision dropped,
// which is what SQLite round-trips without loss.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// NullString maps an empty string to SQL NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// StringFromNull returns the string value or empty when NULL.
func StringFromNull(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
