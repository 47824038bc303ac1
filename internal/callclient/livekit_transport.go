package callclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

// SDKTransport is the production RoomTransport backed by the media SDK.
type SDKTransport struct {
	wsURL string
	log   zerolog.Logger
}

// NewSDKTransport creates a transport connecting to the given media
// server websocket URL.
func NewSDKTransport(wsURL string, log zerolog.Logger) *SDKTransport {
	return &SDKTransport{
		wsURL: wsURL,
		log:   log.With().Str("component", "sdk-transport").Logger(),
	}
}

// AcquireTracks creates the local audio and video tracks. The tracks are
// published on Connect; until then mute toggles only update local state.
func (t *SDKTransport) AcquireTracks(ctx context.Context) (LocalTracks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mic, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  2,
	})
	if err != nil {
		return nil, fmt.Errorf("create audio track: %w", err)
	}
	cam, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeVP8,
		ClockRate: 90000,
	})
	if err != nil {
		return nil, fmt.Errorf("create video track: %w", err)
	}
	return &sdkTracks{mic: mic, cam: cam}, nil
}

// Connect joins the room, publishes the local tracks and wires remote
// track callbacks into the handler.
func (t *SDKTransport) Connect(ctx context.Context, token, roomName string, tracks LocalTracks, handler RemoteTrackHandler) (RoomSession, error) {
	lt, ok := tracks.(*sdkTracks)
	if !ok {
		return nil, fmt.Errorf("tracks were not acquired by this transport")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	callback := &lksdk.RoomCallback{
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			handler.OnParticipantDisconnected(rp.Identity())
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				handler.OnTrackSubscribed(rp.Identity(), pub.SID())
			},
			OnTrackUnsubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				handler.OnTrackUnsubscribed(rp.Identity(), pub.SID())
			},
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(t.wsURL, token, callback)
	if err != nil {
		return nil, fmt.Errorf("connect to room %s: %w", roomName, err)
	}

	micPub, err := room.LocalParticipant.PublishTrack(lt.mic, &lksdk.TrackPublicationOptions{
		Name:   "microphone",
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		room.Disconnect()
		return nil, fmt.Errorf("publish audio track: %w", err)
	}
	camPub, err := room.LocalParticipant.PublishTrack(lt.cam, &lksdk.TrackPublicationOptions{
		Name:   "camera",
		Source: livekit.TrackSource_CAMERA,
	})
	if err != nil {
		room.Disconnect()
		return nil, fmt.Errorf("publish video track: %w", err)
	}
	lt.bind(micPub, camPub)

	t.log.Info().Str("room", roomName).Msg("joined media room")
	return &sdkSession{room: room}, nil
}

type sdkTracks struct {
	mu     sync.Mutex
	mic    *lksdk.LocalSampleTrack
	cam    *lksdk.LocalSampleTrack
	micPub *lksdk.LocalTrackPublication
	camPub *lksdk.LocalTrackPublication
}

func (t *sdkTracks) bind(micPub, camPub *lksdk.LocalTrackPublication) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.micPub = micPub
	t.camPub = camPub
}

func (t *sdkTracks) SetMicEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.micPub != nil {
		t.micPub.SetMuted(!enabled)
	}
	return nil
}

func (t *sdkTracks) SetCameraEnabled(enabled bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.camPub != nil {
		t.camPub.SetMuted(!enabled)
	}
	return nil
}

func (t *sdkTracks) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.micPub = nil
	t.camPub = nil
}

type sdkSession struct {
	room *lksdk.Room
	once sync.Once
}

func (s *sdkSession) Participants() []string {
	remotes := s.room.GetRemoteParticipants()
	ids := make([]string, 0, len(remotes)+1)
	ids = append(ids, s.room.LocalParticipant.Identity())
	for _, rp := range remotes {
		ids = append(ids, rp.Identity())
	}
	return ids
}

func (s *sdkSession) Disconnect() {
	s.once.Do(func() {
		s.room.Disconnect()
	})
}
