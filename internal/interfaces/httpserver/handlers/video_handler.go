package handlers

import (
	"context"

	"teleclinic/consult-api/internal/domain/video"
)

// VideoHandler handles media token and room HTTP requests.
type VideoHandler struct {
	service *video.Service
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(service *video.Service) *VideoHandler {
	return &VideoHandler{service: service}
}

// IssueToken mints an access token for a room participant.
func (h *VideoHandler) IssueToken(ctx context.Context, identity, roomName string, userID int64, role string) (*video.Token, error) {
	return h.service.IssueToken(ctx, identity, roomName, userID, role)
}

// EnsureRoom provisions a media room.
func (h *VideoHandler) EnsureRoom(ctx context.Context, roomName string) error {
	return h.service.EnsureRoom(ctx, roomName)
}

// Participants lists a room's participant identities.
func (h *VideoHandler) Participants(ctx context.Context, roomName string) ([]string, error) {
	return h.service.Participants(ctx, roomName)
}
