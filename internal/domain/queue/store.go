package queue

import "context"

// Repository defines persistence for queue entries.
//
// Implementations must enforce the one-active-entry invariant per
// (doctor, patient) pair; Create returns a conflict error when an active
// entry already exists so concurrent joins stay idempotent at the
// service layer.
type Repository interface {
	// Create stores a new waiting entry at the next free position.
	Create(ctx context.Context, entry *Entry) error

	// GetActiveByPair retrieves the single active entry for a pair, or a
	// not-found error.
	GetActiveByPair(ctx context.Context, doctorID, patientID int64) (*Entry, error)

	// ListActiveByDoctor returns all active entries for a doctor ordered
	// by position ascending.
	ListActiveByDoctor(ctx context.Context, doctorID int64) ([]*Entry, error)

	// CountWaiting returns the number of waiting entries for a doctor.
	CountWaiting(ctx context.Context, doctorID int64) (int, error)

	// UpdateStatus transitions an entry to the given status.
	UpdateStatus(ctx context.Context, id int64, status EntryStatus) error

	// Remove marks the entry left and shifts later waiting entries up one
	// position, keeping positions 1-based and dense.
	Remove(ctx context.Context, id int64) error
}
