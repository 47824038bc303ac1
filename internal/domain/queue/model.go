package queue

import "time"

// EntryStatus represents the state of a queue entry.
type EntryStatus string

const (
	// StatusWaiting indicates the patient is waiting for the doctor.
	StatusWaiting EntryStatus = "waiting"
	// StatusInConsultation indicates the entry was promoted into a live session.
	StatusInConsultation EntryStatus = "in_consultation"
	// StatusLeft indicates the patient left the queue or the session ended.
	StatusLeft EntryStatus = "left"
)

// Active reports whether the entry still occupies the pair's single slot.
func (s EntryStatus) Active() bool {
	return s == StatusWaiting || s == StatusInConsultation
}

// CanTransitionTo checks a transition against the entry lifecycle:
// waiting → in_consultation → left, with waiting → left on leave.
// No backward edges.
func (s EntryStatus) CanTransitionTo(target EntryStatus) bool {
	switch s {
	case StatusWaiting:
		return target == StatusInConsultation || target == StatusLeft
	case StatusInConsultation:
		return target == StatusLeft
	default:
		return false
	}
}

// Entry is one patient's place in a doctor's waiting queue.
// At most one active entry exists per (doctor, patient) pair.
type Entry struct {
	ID        int64
	DoctorID  int64
	PatientID int64
	Position  int
	Status    EntryStatus
	JoinedAt  time.Time
	UpdatedAt time.Time
}

// JoinAction is the outcome of a join request.
type JoinAction string

const (
	// JoinActionJoined indicates a new entry was created.
	JoinActionJoined JoinAction = "joined"
	// JoinActionWaiting indicates the patient was already queued.
	JoinActionWaiting JoinAction = "waiting"
	// JoinActionRejoin indicates an ongoing consultation already exists.
	JoinActionRejoin JoinAction = "rejoin"
	// JoinActionInConsultation indicates the entry was already promoted.
	JoinActionInConsultation JoinAction = "in_consultation"
)

// JoinResult carries everything the caller needs after a join request.
type JoinResult struct {
	Action         JoinAction
	Position       int
	EstimatedWait  time.Duration
	QueueLength    int
	ConsultationID string
	RoomName       string
}
