package store

import "errors"

// ErrNotFound is returned by Backend.Load when no history has been persisted
// for a location.
var ErrNotFound = errors.New("history not found")

// Backend is the durable storage contract for histories. Implementations must
// round-trip the full snapshot sequence losslessly, including empty values.
type Backend[T any] interface {
	// Load returns every stored snapshot for location, oldest first.
	// Returns ErrNotFound if nothing has been stored.
	Load(location string) ([]T, error)
	// Save replaces the stored snapshots for location. Either the whole
	// sequence is persisted or the previous one is left in place.
	Save(location string, history []T) error
}
