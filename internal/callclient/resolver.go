package callclient

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/utils/platformerrors"
)

// ErrStatusSuperseded is returned when a status check resolved after a
// newer check for the same pair already did. The caller must discard
// the result and keep the state the newer check produced.
var ErrStatusSuperseded = errors.New("status check superseded by a newer one")

// StatusAPI is the slice of the API client the resolver needs.
type StatusAPI interface {
	CheckStatus(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error)
}

// Resolver serializes status checks for doctor/patient pairs. Checks may
// overlap in flight, but only the most recently issued one is allowed to
// take effect; older responses come back as ErrStatusSuperseded.
type Resolver struct {
	api StatusAPI
	log zerolog.Logger

	mu      sync.Mutex
	issued  map[pairKey]uint64
	applied map[pairKey]uint64
}

type pairKey struct {
	doctorID  int64
	patientID int64
}

// NewResolver creates a status resolver over the given API.
func NewResolver(api StatusAPI, log zerolog.Logger) *Resolver {
	return &Resolver{
		api:     api,
		log:     log.With().Str("component", "status-resolver").Logger(),
		issued:  make(map[pairKey]uint64),
		applied: make(map[pairKey]uint64),
	}
}

// Check runs a status check for the pair. On transport failure it returns
// a fallback ActionNone result alongside the error: the caller surfaces
// the error but proceeds as if the pair had no prior state, without
// retrying on its own.
func (r *Resolver) Check(ctx context.Context, doctorID, patientID int64, autoJoin bool) (*StatusResult, error) {
	key := pairKey{doctorID: doctorID, patientID: patientID}

	r.mu.Lock()
	r.issued[key]++
	seq := r.issued[key]
	r.mu.Unlock()

	res, err := r.api.CheckStatus(ctx, doctorID, patientID, autoJoin)
	if err != nil {
		r.log.Warn().Err(err).
			Int64("doctor_id", doctorID).
			Int64("patient_id", patientID).
			Msg("status check failed, falling back to none")
		return &StatusResult{Action: ActionNone}, platformerrors.AsError(ctx,
			platformerrors.LayerClient, err, "status check failed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applied[key] > seq {
		r.log.Debug().
			Int64("doctor_id", doctorID).
			Int64("patient_id", patientID).
			Uint64("seq", seq).
			Msg("dropping superseded status result")
		return nil, ErrStatusSuperseded
	}
	r.applied[key] = seq
	return res, nil
}
