package consultation

import "time"

// Status represents the lifecycle status of a consultation.
type Status string

const (
	// StatusOngoing indicates the consultation is live; its room accepts joins.
	StatusOngoing Status = "ongoing"
	// StatusCompleted indicates the doctor ended the consultation normally.
	StatusCompleted Status = "completed"
	// StatusCancelled indicates the consultation was abandoned before completion.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ValidTransitions defines allowed status transitions.
// Terminal states have no outgoing edges.
var ValidTransitions = map[Status][]Status{
	StatusOngoing:   {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransitionTo checks if a transition from the current status to the
// target status is valid.
func (s Status) CanTransitionTo(target Status) bool {
	validTargets, ok := ValidTransitions[s]
	if !ok {
		return false
	}
	for _, t := range validTargets {
		if t == target {
			return true
		}
	}
	return false
}

// Consultation represents one video session between a doctor and a patient.
type Consultation struct {
	ID        string
	DoctorID  int64
	PatientID int64
	RoomName  string
	Status    Status
	Notes     string
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Action is the resolved next step for a doctor/patient pair.
type Action string

const (
	// ActionRejoin indicates an ongoing consultation exists; resume it.
	ActionRejoin Action = "rejoin"
	// ActionEnded indicates the most recent consultation finished and nothing is pending.
	ActionEnded Action = "ended"
	// ActionInConsultation indicates the pair's queue entry was promoted; join the room.
	ActionInConsultation Action = "in_consultation"
	// ActionWait indicates the patient is queued and must keep waiting.
	ActionWait Action = "wait"
	// ActionJoined indicates a queue entry was just created for the patient.
	ActionJoined Action = "joined"
	// ActionNone indicates no session or queue state exists for the pair.
	ActionNone Action = "none"
	// ActionConflict indicates the pair's state changed underneath the caller.
	ActionConflict Action = "conflict"
)

// StatusResult is the outcome of a status check. It carries enough state
// for the caller to act without a second round trip. It is derived, never
// persisted, and must be recomputed on every check.
type StatusResult struct {
	Action         Action
	ConsultationID string
	RoomName       string
	Position       int
	EstimatedWait  time.Duration
	QueueLength    int
}

// Page describes pagination for history listings.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Normalize clamps page values to sane bounds.
func (p Page) Normalize() Page {
	out := p
	if out.Number < 1 {
		out.Number = 1
	}
	if out.Size < 1 {
		out.Size = 20
	}
	if out.Size > 100 {
		out.Size = 100
	}
	return out
}

// HistoryPage is one page of consultation records plus the total count.
type HistoryPage struct {
	Consultations []*Consultation
	Total         int64
	Page          Page
}
