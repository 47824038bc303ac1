package queue

import "errors"

var (
	// ErrEntryNotFound is returned when no matching queue entry exists.
	ErrEntryNotFound = errors.New("queue entry not found")
	// ErrEntryExists is returned when the pair already has an active entry.
	ErrEntryExists = errors.New("queue entry already exists")
)

// IsNotFound reports whether err means the entry does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

// IsConflict reports whether err means the one-active-entry invariant
// rejected a duplicate.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEntryExists)
}
