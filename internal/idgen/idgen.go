// Package idgen issues opaque user identifiers.
package idgen

import "github.com/google/uuid"

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID() string {
	return uuid.NewString()
}
