package queue

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/infrastructure/metrics"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// OngoingConsultation is the slice of consultation state the queue needs
// to answer a join request for a pair that is already in session.
type OngoingConsultation struct {
	ID       string
	RoomName string
}

// ConsultationLookup resolves the ongoing consultation for a pair.
// Returns nil when the pair has no live session.
type ConsultationLookup interface {
	OngoingByPair(ctx context.Context, doctorID, patientID int64) (*OngoingConsultation, error)
}

// Service defines queue membership operations.
type Service interface {
	// Join admits a patient to a doctor's queue. Idempotent: joining while
	// already queued returns the current position instead of erroring.
	Join(ctx context.Context, patientID, doctorID int64) (*JoinResult, error)

	// Leave removes the patient's entry and returns the doctor's updated
	// queue. Success even when no entry exists.
	Leave(ctx context.Context, patientID, doctorID int64) ([]*Entry, error)

	// Fetch returns the doctor-side view of the queue, ordered by
	// position ascending.
	Fetch(ctx context.Context, doctorID int64) ([]*Entry, error)

	// ActiveEntry returns the pair's single active entry, or nil when the
	// pair is not queued.
	ActiveEntry(ctx context.Context, doctorID, patientID int64) (*Entry, error)

	// Promote transitions the pair's waiting entry to in_consultation when
	// a session starts. No-op when the pair is not queued.
	Promote(ctx context.Context, doctorID, patientID int64) error

	// Release drops the pair's active entry when a consultation ends or a
	// patient disconnects for good. No-op when the pair is not queued.
	Release(ctx context.Context, doctorID, patientID int64) error

	// EstimatedWait converts a queue position into an expected wait.
	EstimatedWait(position int) time.Duration
}

type service struct {
	repo          Repository
	consultations ConsultationLookup
	publisher     event.Publisher
	avgDuration   time.Duration
	log           zerolog.Logger
}

// NewService creates a new queue service.
func NewService(
	repo Repository,
	consultations ConsultationLookup,
	publisher event.Publisher,
	avgDuration time.Duration,
	log zerolog.Logger,
) Service {
	return &service{
		repo:          repo,
		consultations: consultations,
		publisher:     publisher,
		avgDuration:   avgDuration,
		log:           log.With().Str("component", "queue-service").Logger(),
	}
}

func (s *service) Join(ctx context.Context, patientID, doctorID int64) (*JoinResult, error) {
	// A live session for the pair outranks any queue state.
	ongoing, err := s.consultations.OngoingByPair(ctx, doctorID, patientID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check ongoing consultation")
	}
	if ongoing != nil {
		return &JoinResult{
			Action:         JoinActionRejoin,
			ConsultationID: ongoing.ID,
			RoomName:       ongoing.RoomName,
		}, nil
	}

	existing, err := s.repo.GetActiveByPair(ctx, doctorID, patientID)
	if err != nil && !IsNotFound(err) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up queue entry")
	}
	if existing != nil {
		return s.resultForExisting(ctx, existing)
	}

	entry := &Entry{
		DoctorID:  doctorID,
		PatientID: patientID,
		Status:    StatusWaiting,
		JoinedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		// A concurrent join for the same pair won the race; the backend
		// invariant holds and this call reports the surviving entry.
		if IsConflict(err) {
			survivor, lookupErr := s.repo.GetActiveByPair(ctx, doctorID, patientID)
			if lookupErr != nil {
				return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, lookupErr, "failed to resolve queue join race")
			}
			return s.resultForExisting(ctx, survivor)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create queue entry")
	}

	metrics.RecordQueueJoin()

	waiting, err := s.repo.CountWaiting(ctx, doctorID)
	if err != nil {
		waiting = entry.Position
	}

	s.log.Info().
		Int64("doctor_id", doctorID).
		Int64("patient_id", patientID).
		Int("position", entry.Position).
		Msg("patient joined queue")

	s.publishDoctor(ctx, doctorID, event.Event{
		Type:      event.TypePatientJoinedQueue,
		DoctorID:  doctorID,
		PatientID: patientID,
	})
	s.publishDoctor(ctx, doctorID, event.Event{Type: event.TypeQueueChanged, DoctorID: doctorID})

	return &JoinResult{
		Action:        JoinActionJoined,
		Position:      entry.Position,
		EstimatedWait: s.EstimatedWait(entry.Position),
		QueueLength:   waiting,
	}, nil
}

func (s *service) Leave(ctx context.Context, patientID, doctorID int64) ([]*Entry, error) {
	existing, err := s.repo.GetActiveByPair(ctx, doctorID, patientID)
	if err != nil {
		if IsNotFound(err) {
			// Already gone; leaving is a no-op success.
			return s.Fetch(ctx, doctorID)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up queue entry")
	}

	if existing.Status != StatusWaiting {
		// A promoted entry belongs to a running session; only the
		// consultation end path releases it.
		return s.Fetch(ctx, doctorID)
	}

	if err := s.repo.Remove(ctx, existing.ID); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to remove queue entry")
	}
	metrics.RecordQueueLeave()

	s.log.Info().
		Int64("doctor_id", doctorID).
		Int64("patient_id", patientID).
		Msg("patient left queue")

	s.publishDoctor(ctx, doctorID, event.Event{
		Type:      event.TypePatientLeftQueue,
		DoctorID:  doctorID,
		PatientID: patientID,
	})
	s.publishDoctor(ctx, doctorID, event.Event{Type: event.TypeQueueChanged, DoctorID: doctorID})
	s.notifyPositions(ctx, doctorID)

	return s.Fetch(ctx, doctorID)
}

func (s *service) Fetch(ctx context.Context, doctorID int64) ([]*Entry, error) {
	entries, err := s.repo.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list queue")
	}
	return entries, nil
}

func (s *service) ActiveEntry(ctx context.Context, doctorID, patientID int64) (*Entry, error) {
	entry, err := s.repo.GetActiveByPair(ctx, doctorID, patientID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up queue entry")
	}
	return entry, nil
}

func (s *service) Promote(ctx context.Context, doctorID, patientID int64) error {
	existing, err := s.repo.GetActiveByPair(ctx, doctorID, patientID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up queue entry")
	}
	if existing.Status != StatusWaiting {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, existing.ID, StatusInConsultation); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to promote queue entry")
	}
	metrics.WaitingPatients.Dec()

	s.publishDoctor(ctx, doctorID, event.Event{Type: event.TypeQueueChanged, DoctorID: doctorID})
	s.notifyPositions(ctx, doctorID)
	return nil
}

func (s *service) Release(ctx context.Context, doctorID, patientID int64) error {
	existing, err := s.repo.GetActiveByPair(ctx, doctorID, patientID)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up queue entry")
	}

	if err := s.repo.Remove(ctx, existing.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to release queue entry")
	}
	if existing.Status == StatusWaiting {
		metrics.WaitingPatients.Dec()
	}

	s.publishDoctor(ctx, doctorID, event.Event{Type: event.TypeQueueChanged, DoctorID: doctorID})
	s.notifyPositions(ctx, doctorID)
	return nil
}

func (s *service) EstimatedWait(position int) time.Duration {
	if position < 1 {
		return 0
	}
	return time.Duration(position) * s.avgDuration
}

func (s *service) resultForExisting(ctx context.Context, entry *Entry) (*JoinResult, error) {
	switch entry.Status {
	case StatusInConsultation:
		result := &JoinResult{Action: JoinActionInConsultation}
		if ongoing, err := s.consultations.OngoingByPair(ctx, entry.DoctorID, entry.PatientID); err == nil && ongoing != nil {
			result.ConsultationID = ongoing.ID
			result.RoomName = ongoing.RoomName
		}
		return result, nil
	default:
		waiting, err := s.repo.CountWaiting(ctx, entry.DoctorID)
		if err != nil {
			waiting = entry.Position
		}
		return &JoinResult{
			Action:        JoinActionWaiting,
			Position:      entry.Position,
			EstimatedWait: s.EstimatedWait(entry.Position),
			QueueLength:   waiting,
		}, nil
	}
}

// notifyPositions pushes fresh positions to every waiting patient after
// the queue shifted. Best-effort; patients reconcile on their next poll.
func (s *service) notifyPositions(ctx context.Context, doctorID int64) {
	entries, err := s.repo.ListActiveByDoctor(ctx, doctorID)
	if err != nil {
		s.log.Warn().Err(err).Int64("doctor_id", doctorID).Msg("skipping position fan-out")
		return
	}
	for _, entry := range entries {
		if entry.Status != StatusWaiting {
			continue
		}
		s.publisher.Publish(ctx, event.Recipient{Role: "patient", UserID: entry.PatientID}, event.Event{
			Type:          event.TypePositionUpdate,
			DoctorID:      doctorID,
			Position:      entry.Position,
			EstimatedWait: int(s.EstimatedWait(entry.Position).Seconds()),
		})
	}
}

func (s *service) publishDoctor(ctx context.Context, doctorID int64, evt event.Event) {
	s.publisher.Publish(ctx, event.Recipient{Role: "doctor", UserID: doctorID}, evt)
}
