// Package video issues room-scoped access tokens and exposes room
// introspection for the media transport.
package video

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// TokenGenerator mints access tokens for the media transport.
type TokenGenerator interface {
	Generate(room, identity string, ttl time.Duration) (string, error)
}

// RoomInspector exposes room provisioning and participant enumeration.
type RoomInspector interface {
	EnsureRoom(ctx context.Context, name string) error
	ListParticipants(ctx context.Context, room string) ([]string, error)
}

// Token is a short-lived credential scoped to one identity and one room.
type Token struct {
	Value     string
	Identity  string
	RoomName  string
	ExpiresAt time.Time
}

// Service issues tokens and answers room queries.
type Service struct {
	tokens   TokenGenerator
	rooms    RoomInspector
	consults consultation.Repository
	tokenTTL time.Duration
	log      zerolog.Logger
}

// NewService creates a new video service.
func NewService(
	tokens TokenGenerator,
	rooms RoomInspector,
	consults consultation.Repository,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		tokens:   tokens,
		rooms:    rooms,
		consults: consults,
		tokenTTL: tokenTTL,
		log:      log.With().Str("component", "video-service").Logger(),
	}
}

// IssueToken mints a token for the given identity and room. The room must
// belong to an ongoing consultation and the identity must be one of its
// two participants; tokens for ended sessions are refused.
func (s *Service) IssueToken(ctx context.Context, identity, roomName string, userID int64, role string) (*Token, error) {
	cons, err := s.consults.GetByRoom(ctx, roomName)
	if err != nil {
		if consultation.IsNotFound(err) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeNotFound, "no consultation for room", err, "")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve room")
	}

	if cons.Status.IsTerminal() {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeConflict, "consultation already ended", consultation.ErrAlreadyEnded, "")
	}

	participant := (role == "doctor" && cons.DoctorID == userID) ||
		(role == "patient" && cons.PatientID == userID)
	if !participant {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeForbidden, "not a participant of this room", consultation.ErrNotParticipant, "")
	}

	value, err := s.tokens.Generate(roomName, identity, s.tokenTTL)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate access token")
	}

	s.log.Info().
		Str("identity", identity).
		Str("room", roomName).
		Msg("access token issued")

	return &Token{
		Value:     value,
		Identity:  identity,
		RoomName:  roomName,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}, nil
}

// EnsureRoom provisions the media room.
func (s *Service) EnsureRoom(ctx context.Context, roomName string) error {
	if err := s.rooms.EnsureRoom(ctx, roomName); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeExternal, "room provisioning failed", err, "")
	}
	return nil
}

// Participants enumerates participant identities for a room. Best-effort:
// callers fall back to locally known participants when this fails.
func (s *Service) Participants(ctx context.Context, roomName string) ([]string, error) {
	identities, err := s.rooms.ListParticipants(ctx, roomName)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeExternal, "participant enumeration failed", err, "")
	}
	return identities, nil
}
