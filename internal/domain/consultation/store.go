package consultation

import "context"

// Repository defines persistence for consultations.
type Repository interface {
	// Create stores a new consultation.
	Create(ctx context.Context, cons *Consultation) error

	// GetByID retrieves a consultation by its ID.
	GetByID(ctx context.Context, id string) (*Consultation, error)

	// GetOngoingByPair retrieves the ongoing consultation for a
	// doctor/patient pair, or a not-found error when none exists.
	GetOngoingByPair(ctx context.Context, doctorID, patientID int64) (*Consultation, error)

	// GetLatestByPair retrieves the most recently started consultation for
	// a pair regardless of status.
	GetLatestByPair(ctx context.Context, doctorID, patientID int64) (*Consultation, error)

	// GetByRoom retrieves a consultation by its media room name.
	GetByRoom(ctx context.Context, roomName string) (*Consultation, error)

	// ListOngoing returns all ongoing consultations (room sync iteration).
	ListOngoing(ctx context.Context) ([]*Consultation, error)

	// UpdateStatus transitions a consultation to a terminal status,
	// recording notes and the end time.
	UpdateStatus(ctx context.Context, id string, status Status, notes string) error

	// ListHistory returns terminal consultations filtered by doctor and/or
	// patient (zero means no filter), newest first.
	ListHistory(ctx context.Context, doctorID, patientID int64, page Page) (*HistoryPage, error)
}
