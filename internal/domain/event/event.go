// Package event defines the real-time notifications pushed to connected
// clients and the publisher interface the event bridge implements.
package event

import "context"

// Type identifies a real-time event.
type Type string

const (
	// TypePositionUpdate notifies a waiting patient of a changed position.
	TypePositionUpdate Type = "POSITION_UPDATE"
	// TypeConsultationStarted notifies a patient that the doctor began the session.
	TypeConsultationStarted Type = "CONSULTATION_STARTED"
	// TypeConsultationEnded notifies both sides that the session finished.
	TypeConsultationEnded Type = "CONSULTATION_ENDED"
	// TypeParticipantRejoined notifies the remote side that a participant reconnected.
	TypeParticipantRejoined Type = "PARTICIPANT_REJOINED"
	// TypeQueueChanged tells a doctor to re-fetch their queue list.
	TypeQueueChanged Type = "QUEUE_CHANGED"
	// TypePatientJoinedQueue tells a doctor a patient joined their queue.
	TypePatientJoinedQueue Type = "PATIENT_JOINED_QUEUE"
	// TypePatientLeftQueue tells a doctor a patient left their queue.
	TypePatientLeftQueue Type = "PATIENT_LEFT_QUEUE"
	// TypeSwitchDoctorAvailability is the only client-to-server event.
	TypeSwitchDoctorAvailability Type = "SWITCH_DOCTOR_AVAILABILITY"
)

// Event is one notification on the bridge. Payload fields are optional
// and depend on the type; doctor-side queue events deliberately carry no
// queue snapshot, the receiver always re-fetches the authoritative list.
type Event struct {
	Type           Type   `json:"type"`
	ConsultationID string `json:"consultationId,omitempty"`
	RoomName       string `json:"roomName,omitempty"`
	DoctorID       int64  `json:"doctorId,omitempty"`
	PatientID      int64  `json:"patientId,omitempty"`
	Position       int    `json:"position,omitempty"`
	EstimatedWait  int    `json:"estimatedWait,omitempty"` // seconds
	QueueLength    int    `json:"queueLength,omitempty"`
	IsAvailable    *bool  `json:"isAvailable,omitempty"`
}

// Recipient addresses one authenticated user.
type Recipient struct {
	Role   string
	UserID int64
}

// Publisher delivers events to connected recipients. Delivery is
// best-effort: recipients without an open connection miss the event and
// reconcile on their next status check.
type Publisher interface {
	Publish(ctx context.Context, to Recipient, evt Event)
}

// NopPublisher discards all events. Used in tests and before the bridge
// is started.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(ctx context.Context, to Recipient, evt Event) {}
