package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/domain/queue"
	"teleclinic/consult-api/internal/infrastructure/metrics"
	"teleclinic/consult-api/internal/utils/idgen"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RoomManager is the slice of the media transport the service needs:
// room provisioning and teardown. Lives behind an interface so the
// service stays testable without a LiveKit deployment.
type RoomManager interface {
	EnsureRoom(ctx context.Context, name string) error
	DeleteRoom(ctx context.Context, name string) error
}

// Service defines consultation lifecycle operations.
type Service interface {
	// Start creates a new consultation for the pair, or returns the
	// existing ongoing one (a doctor double-clicking start is harmless).
	Start(ctx context.Context, doctorID, patientID int64) (*Consultation, error)

	// CheckStatus resolves what the pair should do right now. autoJoin is
	// honored only for patient-initiated checks; when true and no state
	// exists, the patient is admitted to the doctor's queue.
	CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error)

	// Rejoin resumes an ongoing consultation after a disconnect or page
	// reload. Fails with ErrAlreadyEnded when the session is terminal.
	Rejoin(ctx context.Context, consultationID string, userID int64, userType string) (*Consultation, error)

	// End transitions an ongoing consultation to a terminal status,
	// releases the pair's queue entry and tears the room down.
	End(ctx context.Context, consultationID string, doctorID int64, notes string) error

	// EndAbandoned cancels a consultation whose room emptied without an
	// explicit end. Used by the room syncer.
	EndAbandoned(ctx context.Context, cons *Consultation) error

	// GetByID retrieves a consultation.
	GetByID(ctx context.Context, id string) (*Consultation, error)

	// History lists terminal consultations, newest first. Zero doctorID or
	// patientID means no filter on that participant.
	History(ctx context.Context, doctorID, patientID int64, page Page) (*HistoryPage, error)
}

type service struct {
	repo      Repository
	queue     queue.Service
	rooms     RoomManager
	publisher event.Publisher
	log       zerolog.Logger

	// Collapses concurrent status checks for the same pair into one
	// backend read, so a page reload racing a poll cannot double-join.
	checks singleflight.Group
}

// NewService creates a new consultation service.
func NewService(
	repo Repository,
	queueService queue.Service,
	rooms RoomManager,
	publisher event.Publisher,
	log zerolog.Logger,
) Service {
	return &service{
		repo:      repo,
		queue:     queueService,
		rooms:     rooms,
		publisher: publisher,
		log:       log.With().Str("component", "consultation-service").Logger(),
	}
}

func (s *service) Start(ctx context.Context, doctorID, patientID int64) (*Consultation, error) {
	if doctorID <= 0 || patientID <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "doctorId and patientId must be positive", nil, "")
	}

	if existing, err := s.repo.GetOngoingByPair(ctx, doctorID, patientID); err == nil && existing != nil {
		return existing, nil
	} else if err != nil && !IsNotFound(err) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check ongoing consultation")
	}

	id, err := idgen.GenerateSecureID("cons", 24)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate consultation ID")
	}

	cons := &Consultation{
		ID:        id,
		DoctorID:  doctorID,
		PatientID: patientID,
		RoomName:  fmt.Sprintf("room-%d", patientID),
		Status:    StatusOngoing,
		StartedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, cons); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create consultation")
	}
	metrics.RecordConsultationStarted()

	// Room provisioning is best-effort: LiveKit also creates rooms
	// implicitly on first join.
	if err := s.rooms.EnsureRoom(ctx, cons.RoomName); err != nil {
		s.log.Warn().Err(err).Str("room", cons.RoomName).Msg("room provisioning failed, relying on implicit creation")
	}

	if err := s.queue.Promote(ctx, doctorID, patientID); err != nil {
		s.log.Warn().Err(err).
			Int64("doctor_id", doctorID).
			Int64("patient_id", patientID).
			Msg("queue promotion failed")
	}

	s.log.Info().
		Str("consultation_id", cons.ID).
		Int64("doctor_id", doctorID).
		Int64("patient_id", patientID).
		Str("room", cons.RoomName).
		Msg("consultation started")

	s.publisher.Publish(ctx, event.Recipient{Role: "patient", UserID: patientID}, event.Event{
		Type:           event.TypeConsultationStarted,
		ConsultationID: cons.ID,
		RoomName:       cons.RoomName,
		DoctorID:       doctorID,
		PatientID:      patientID,
	})

	return cons, nil
}

func (s *service) CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error) {
	if doctorID <= 0 || patientID <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "doctorId and patientId must be positive", nil, "")
	}

	key := fmt.Sprintf("%d:%d:%t", doctorID, patientID, autoJoin)
	result, err, _ := s.checks.Do(key, func() (any, error) {
		return s.resolve(ctx, doctorID, patientID, autoJoin)
	})
	if err != nil {
		return nil, err
	}
	return result.(*StatusResult), nil
}

// resolve applies the decision policy in priority order; first match wins.
func (s *service) resolve(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error) {
	ongoing, err := s.repo.GetOngoingByPair(ctx, doctorID, patientID)
	if err != nil && !IsNotFound(err) {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check ongoing consultation")
	}
	if ongoing != nil {
		return &StatusResult{
			Action:         ActionRejoin,
			ConsultationID: ongoing.ID,
			RoomName:       ongoing.RoomName,
		}, nil
	}

	entry, err := s.queue.ActiveEntry(ctx, doctorID, patientID)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		latest, err := s.repo.GetLatestByPair(ctx, doctorID, patientID)
		if err != nil && !IsNotFound(err) {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to check consultation history")
		}
		if latest != nil && latest.Status.IsTerminal() {
			return &StatusResult{Action: ActionEnded, ConsultationID: latest.ID}, nil
		}
	}

	if entry != nil {
		switch entry.Status {
		case queue.StatusInConsultation:
			// A promoted entry means a session exists for the pair even
			// when the ongoing lookup above raced its creation; resolve
			// the identifiers so the caller can connect directly.
			res := &StatusResult{Action: ActionInConsultation, Position: entry.Position}
			latest, err := s.repo.GetLatestByPair(ctx, doctorID, patientID)
			if err != nil && !IsNotFound(err) {
				return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up promoted consultation")
			}
			if latest != nil && !latest.Status.IsTerminal() {
				res.ConsultationID = latest.ID
				res.RoomName = latest.RoomName
			}
			return res, nil
		case queue.StatusWaiting:
			return &StatusResult{
				Action:        ActionWait,
				Position:      entry.Position,
				EstimatedWait: s.queue.EstimatedWait(entry.Position),
			}, nil
		}
	}

	if autoJoin {
		joined, err := s.queue.Join(ctx, patientID, doctorID)
		if err != nil {
			return nil, err
		}
		return joinToStatus(joined), nil
	}

	return &StatusResult{Action: ActionNone}, nil
}

func joinToStatus(res *queue.JoinResult) *StatusResult {
	out := &StatusResult{
		ConsultationID: res.ConsultationID,
		RoomName:       res.RoomName,
		Position:       res.Position,
		EstimatedWait:  res.EstimatedWait,
		QueueLength:    res.QueueLength,
	}
	switch res.Action {
	case queue.JoinActionJoined:
		out.Action = ActionJoined
	case queue.JoinActionWaiting:
		out.Action = ActionWait
	case queue.JoinActionRejoin:
		out.Action = ActionRejoin
	case queue.JoinActionInConsultation:
		out.Action = ActionInConsultation
	default:
		out.Action = ActionConflict
	}
	return out
}

func (s *service) Rejoin(ctx context.Context, consultationID string, userID int64, userType string) (*Consultation, error) {
	cons, err := s.repo.GetByID(ctx, consultationID)
	if err != nil {
		if IsNotFound(err) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound, "consultation not found", err, "")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load consultation")
	}

	if cons.Status.IsTerminal() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "consultation already ended", ErrAlreadyEnded, "")
	}

	var counterpart event.Recipient
	switch userType {
	case "doctor":
		if cons.DoctorID != userID {
			return nil, notParticipant(ctx)
		}
		counterpart = event.Recipient{Role: "patient", UserID: cons.PatientID}
	case "patient":
		if cons.PatientID != userID {
			return nil, notParticipant(ctx)
		}
		counterpart = event.Recipient{Role: "doctor", UserID: cons.DoctorID}
	default:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, fmt.Sprintf("unknown userType %q", userType), nil, "")
	}

	s.publisher.Publish(ctx, counterpart, event.Event{
		Type:           event.TypeParticipantRejoined,
		ConsultationID: cons.ID,
		RoomName:       cons.RoomName,
		DoctorID:       cons.DoctorID,
		PatientID:      cons.PatientID,
	})

	return cons, nil
}

func (s *service) End(ctx context.Context, consultationID string, doctorID int64, notes string) error {
	cons, err := s.repo.GetByID(ctx, consultationID)
	if err != nil {
		if IsNotFound(err) {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound, "consultation not found", err, "")
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load consultation")
	}

	if doctorID > 0 && cons.DoctorID != doctorID {
		return notParticipant(ctx)
	}
	if cons.Status.IsTerminal() {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "consultation already ended", ErrAlreadyEnded, "")
	}

	if err := s.repo.UpdateStatus(ctx, cons.ID, StatusCompleted, notes); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to end consultation")
	}
	metrics.RecordConsultationEnded(string(StatusCompleted))

	s.finish(ctx, cons)
	return nil
}

// EndAbandoned cancels a consultation whose room emptied out without an
// explicit end. Called by the room syncer.
func (s *service) EndAbandoned(ctx context.Context, cons *Consultation) error {
	if err := s.repo.UpdateStatus(ctx, cons.ID, StatusCancelled, ""); err != nil {
		return err
	}
	metrics.RecordConsultationEnded(string(StatusCancelled))
	s.finish(ctx, cons)
	return nil
}

// finish performs post-termination cleanup shared by all end paths.
func (s *service) finish(ctx context.Context, cons *Consultation) {
	if err := s.queue.Release(ctx, cons.DoctorID, cons.PatientID); err != nil {
		s.log.Warn().Err(err).Str("consultation_id", cons.ID).Msg("queue release failed")
	}

	if err := s.rooms.DeleteRoom(ctx, cons.RoomName); err != nil {
		s.log.Warn().Err(err).Str("room", cons.RoomName).Msg("room teardown failed")
	}

	ended := event.Event{
		Type:           event.TypeConsultationEnded,
		ConsultationID: cons.ID,
		DoctorID:       cons.DoctorID,
		PatientID:      cons.PatientID,
	}
	s.publisher.Publish(ctx, event.Recipient{Role: "doctor", UserID: cons.DoctorID}, ended)
	s.publisher.Publish(ctx, event.Recipient{Role: "patient", UserID: cons.PatientID}, ended)

	s.log.Info().
		Str("consultation_id", cons.ID).
		Int64("doctor_id", cons.DoctorID).
		Int64("patient_id", cons.PatientID).
		Msg("consultation ended")
}

func (s *service) GetByID(ctx context.Context, id string) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) History(ctx context.Context, doctorID, patientID int64, page Page) (*HistoryPage, error) {
	result, err := s.repo.ListHistory(ctx, doctorID, patientID, page.Normalize())
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list consultation history")
	}
	return result, nil
}

func notParticipant(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain,
		platformerrors.ErrorTypeForbidden, "user is not a participant of this consultation", ErrNotParticipant, "")
}
