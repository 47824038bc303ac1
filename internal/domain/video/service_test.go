package video_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/domain/video"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// MockTokenGenerator is a mock implementation of video.TokenGenerator.
type MockTokenGenerator struct {
	GenerateFunc func(room, identity string, ttl time.Duration) (string, error)
}

func (m *MockTokenGenerator) Generate(room, identity string, ttl time.Duration) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(room, identity, ttl)
	}
	return "jwt-token", nil
}

// MockRoomInspector is a mock implementation of video.RoomInspector.
type MockRoomInspector struct {
	EnsureRoomFunc       func(ctx context.Context, name string) error
	ListParticipantsFunc func(ctx context.Context, room string) ([]string, error)
}

func (m *MockRoomInspector) EnsureRoom(ctx context.Context, name string) error {
	if m.EnsureRoomFunc != nil {
		return m.EnsureRoomFunc(ctx, name)
	}
	return nil
}

func (m *MockRoomInspector) ListParticipants(ctx context.Context, room string) ([]string, error) {
	if m.ListParticipantsFunc != nil {
		return m.ListParticipantsFunc(ctx, room)
	}
	return nil, nil
}

// roomRepository resolves rooms to a fixed consultation.
type roomRepository struct {
	consultation.Repository
	byRoom map[string]*consultation.Consultation
}

func (r *roomRepository) GetByRoom(ctx context.Context, roomName string) (*consultation.Consultation, error) {
	if cons, ok := r.byRoom[roomName]; ok {
		return cons, nil
	}
	return nil, consultation.ErrNotFound
}

func newVideoService(repo consultation.Repository) *video.Service {
	return video.NewService(&MockTokenGenerator{}, &MockRoomInspector{}, repo, 4*time.Hour, zerolog.Nop())
}

func TestService_IssueToken(t *testing.T) {
	live := &consultation.Consultation{
		ID: "cons_live", DoctorID: 1, PatientID: 2,
		RoomName: "room-2", Status: consultation.StatusOngoing,
	}
	done := &consultation.Consultation{
		ID: "cons_done", DoctorID: 1, PatientID: 2,
		RoomName: "room-9", Status: consultation.StatusCompleted,
	}
	repo := &roomRepository{byRoom: map[string]*consultation.Consultation{
		"room-2": live,
		"room-9": done,
	}}
	svc := newVideoService(repo)

	tests := []struct {
		name     string
		identity string
		roomName string
		userID   int64
		role     string
		wantErr  error
		wantType platformerrors.ErrorType
	}{
		{"doctor gets a token", "doctor-1", "room-2", 1, "doctor", nil, ""},
		{"patient gets a token", "patient-2", "room-2", 2, "patient", nil, ""},
		{"ended room refused", "doctor-1", "room-9", 1, "doctor", consultation.ErrAlreadyEnded, platformerrors.ErrorTypeConflict},
		{"outsider refused", "patient-7", "room-2", 7, "patient", consultation.ErrNotParticipant, platformerrors.ErrorTypeForbidden},
		{"wrong role refused", "doctor-2", "room-2", 2, "doctor", consultation.ErrNotParticipant, platformerrors.ErrorTypeForbidden},
		{"unknown room", "doctor-1", "room-404", 1, "doctor", consultation.ErrNotFound, platformerrors.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.IssueToken(context.Background(), tt.identity, tt.roomName, tt.userID, tt.role)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				pe := platformerrors.GetPlatformError(err)
				if pe == nil || pe.Type != tt.wantType {
					t.Errorf("error type = %v, want %v", pe, tt.wantType)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token.Value != "jwt-token" {
				t.Errorf("token = %q", token.Value)
			}
			if token.Identity != tt.identity || token.RoomName != tt.roomName {
				t.Errorf("token scoped to %s/%s, want %s/%s", token.Identity, token.RoomName, tt.identity, tt.roomName)
			}
			if token.ExpiresAt.Before(time.Now().Add(3 * time.Hour)) {
				t.Error("token expiry not derived from the configured TTL")
			}
		})
	}
}

func TestService_Participants(t *testing.T) {
	rooms := &MockRoomInspector{
		ListParticipantsFunc: func(ctx context.Context, room string) ([]string, error) {
			if room == "room-2" {
				return []string{"doctor-1", "patient-2"}, nil
			}
			return nil, errors.New("livekit down")
		},
	}
	svc := video.NewService(&MockTokenGenerator{}, rooms, &roomRepository{}, time.Hour, zerolog.Nop())

	ids, err := svc.Participants(context.Background(), "room-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 participants, got %d", len(ids))
	}

	if _, err := svc.Participants(context.Background(), "room-9"); err == nil {
		t.Fatal("expected error when the media server is unreachable")
	}
}
