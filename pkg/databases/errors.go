// Package databases holds the errors shared by the database clients so that
// repositories can react to them without knowing which driver produced them.
package databases

import "errors"

var (
	// ErrNoDocuments is returned when a lookup matches nothing.
	ErrNoDocuments = errors.New("no documents in result")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)
