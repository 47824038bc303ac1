package consultation

import (
	"context"

	"teleclinic/consult-api/internal/domain/queue"
)

// queueLookup adapts the consultation repository to the narrow lookup the
// queue service needs, keeping the two services free of a mutual
// dependency.
type queueLookup struct {
	repo Repository
}

// NewQueueLookup exposes ongoing-consultation lookups to the queue service.
func NewQueueLookup(repo Repository) queue.ConsultationLookup {
	return &queueLookup{repo: repo}
}

func (l *queueLookup) OngoingByPair(ctx context.Context, doctorID, patientID int64) (*queue.OngoingConsultation, error) {
	cons, err := l.repo.GetOngoingByPair(ctx, doctorID, patientID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &queue.OngoingConsultation{ID: cons.ID, RoomName: cons.RoomName}, nil
}
