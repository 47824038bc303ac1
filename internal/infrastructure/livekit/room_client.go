package livekit

import (
	"context"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"teleclinic/consult-api/internal/config"
)

// RoomClient provides access to LiveKit room management APIs.
type RoomClient struct {
	client *lksdk.RoomServiceClient
}

// NewRoomClient creates a new LiveKit room client.
func NewRoomClient(cfg *config.Config) *RoomClient {
	client := lksdk.NewRoomServiceClient(cfg.LiveKitWsURL, cfg.LiveKitAPIKey, cfg.LiveKitAPISecret)
	return &RoomClient{client: client}
}

// RoomInfo contains basic room information.
type RoomInfo struct {
	Name            string
	SID             string
	NumParticipants int
}

// EnsureRoom creates the room if it does not exist yet. LiveKit treats
// CreateRoom as idempotent for an existing name.
func (c *RoomClient) EnsureRoom(ctx context.Context, name string) error {
	_, err := c.CreateRoom(ctx, name)
	return err
}

// CreateRoom provisions a room and returns its metadata.
func (c *RoomClient) CreateRoom(ctx context.Context, name string) (*RoomInfo, error) {
	room, err := c.client.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name: name,
	})
	if err != nil {
		return nil, err
	}
	return &RoomInfo{
		Name:            room.Name,
		SID:             room.Sid,
		NumParticipants: int(room.NumParticipants),
	}, nil
}

// DeleteRoom tears the room down, disconnecting all participants.
func (c *RoomClient) DeleteRoom(ctx context.Context, name string) error {
	_, err := c.client.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: name,
	})
	return err
}

// ListActiveRooms returns all active rooms keyed by name.
func (c *RoomClient) ListActiveRooms(ctx context.Context) (map[string]RoomInfo, error) {
	resp, err := c.client.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}

	rooms := make(map[string]RoomInfo)
	for _, room := range resp.Rooms {
		rooms[room.Name] = RoomInfo{
			Name:            room.Name,
			SID:             room.Sid,
			NumParticipants: int(room.NumParticipants),
		}
	}
	return rooms, nil
}

// ListParticipants returns participant identities for a room.
func (c *RoomClient) ListParticipants(ctx context.Context, room string) ([]string, error) {
	resp, err := c.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{
		Room: room,
	})
	if err != nil {
		return nil, err
	}

	identities := make([]string, 0, len(resp.Participants))
	for _, p := range resp.Participants {
		identities = append(identities, p.Identity)
	}
	return identities, nil
}
