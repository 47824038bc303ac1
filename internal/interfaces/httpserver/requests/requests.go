// Package requests contains HTTP request DTOs for the consult-api.
package requests

// StartConsultation starts a session for a doctor/patient pair.
type StartConsultation struct {
	DoctorID  int64 `json:"doctorId" binding:"required,gt=0"`
	PatientID int64 `json:"patientId" binding:"required,gt=0"`
}

// CheckStatus resolves the current state of a pair. AutoJoin admits the
// patient to the queue when no state exists; only honored for patients.
type CheckStatus struct {
	DoctorID  int64 `json:"doctorId" binding:"required,gt=0"`
	PatientID int64 `json:"patientId" binding:"required,gt=0"`
	AutoJoin  bool  `json:"autoJoin"`
}

// Rejoin resumes an ongoing consultation after a reload or reconnect.
type Rejoin struct {
	ConsultationID string `json:"consultationId" binding:"required"`
	UserID         int64  `json:"userId" binding:"required,gt=0"`
	UserType       string `json:"userType" binding:"required,oneof=doctor patient"`
}

// EndConsultation ends a session by body parameters (doctor-side form).
type EndConsultation struct {
	ConsultationID string `json:"consultationId" binding:"required"`
	DoctorID       int64  `json:"doctorId" binding:"required,gt=0"`
	Notes          string `json:"notes"`
}

// EndByID ends a session addressed by path ID.
type EndByID struct {
	Notes string `json:"notes"`
}

// QueueMembership joins or leaves a doctor's queue.
type QueueMembership struct {
	PatientID int64 `json:"patientId" binding:"required,gt=0"`
	DoctorID  int64 `json:"doctorId" binding:"required,gt=0"`
}

// VideoToken requests a media access token.
type VideoToken struct {
	Identity string `json:"identity" binding:"required"`
	RoomName string `json:"roomName" binding:"required"`
}

// VideoRoom provisions a media room.
type VideoRoom struct {
	RoomName string `json:"roomName" binding:"required"`
}

// InitiatePayment starts a payment against the gateway.
type InitiatePayment struct {
	ConsultationID string `json:"consultationId"`
	PatientID      int64  `json:"patientId" binding:"required,gt=0"`
	DoctorID       int64  `json:"doctorId" binding:"required,gt=0"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency"`
}

// VerifyPayment confirms a completed payment.
type VerifyPayment struct {
	PaymentID  string `json:"paymentId" binding:"required"`
	GatewayRef string `json:"gatewayRef"`
	Signature  string `json:"signature"`
}
