package callclient

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/utils/platformerrors"
)

// MediaState is the lifecycle of a single media session.
type MediaState string

const (
	MediaIdle       MediaState = "idle"
	MediaAcquiring  MediaState = "acquiring_media"
	MediaConnecting MediaState = "connecting"
	MediaConnected  MediaState = "connected"
	MediaEnded      MediaState = "ended"
	MediaErrored    MediaState = "errored"
)

// LocalTracks is the set of locally published tracks of a session.
type LocalTracks interface {
	SetMicEnabled(enabled bool) error
	SetCameraEnabled(enabled bool) error
	// Stop releases the underlying devices. Safe to call more than once.
	Stop()
}

// RoomSession is an established media room connection.
type RoomSession interface {
	// Participants returns the identities currently in the room.
	Participants() []string
	// Disconnect leaves the room. Safe to call more than once.
	Disconnect()
}

// RemoteTrackHandler receives remote track lifecycle callbacks from the
// transport. Identity is the publishing participant, trackID the track.
type RemoteTrackHandler interface {
	OnTrackSubscribed(identity, trackID string)
	OnTrackUnsubscribed(identity, trackID string)
	OnParticipantDisconnected(identity string)
}

// RoomTransport abstracts the media SDK so the controller can be driven
// by a fake in tests and by the real SDK in production.
type RoomTransport interface {
	AcquireTracks(ctx context.Context) (LocalTracks, error)
	Connect(ctx context.Context, token, roomName string, tracks LocalTracks, handler RemoteTrackHandler) (RoomSession, error)
}

// MediaController owns one media session end to end: device acquisition,
// room connection, remote track bookkeeping and teardown. A controller
// is not reusable after Disconnect; create a new one for the next call.
type MediaController struct {
	transport RoomTransport
	log       zerolog.Logger

	mu         sync.Mutex
	state      MediaState
	tracks     LocalTracks
	session    RoomSession
	micEnabled bool
	camEnabled bool
	attached   map[string]string // trackID -> identity
}

// NewMediaController creates an idle controller over the transport.
func NewMediaController(transport RoomTransport, log zerolog.Logger) *MediaController {
	return &MediaController{
		transport:  transport,
		log:        log.With().Str("component", "media-controller").Logger(),
		state:      MediaIdle,
		micEnabled: true,
		camEnabled: true,
		attached:   make(map[string]string),
	}
}

// State returns the current media state.
func (m *MediaController) State() MediaState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AcquireLocalTracks opens the local devices. Legal only from idle.
func (m *MediaController) AcquireLocalTracks(ctx context.Context) error {
	m.mu.Lock()
	if m.state != MediaIdle {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("cannot acquire media in state %s", state)
	}
	m.state = MediaAcquiring
	m.mu.Unlock()

	tracks, err := m.transport.AcquireTracks(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MediaAcquiring {
		// Disconnect raced the acquisition; release what we got.
		if tracks != nil {
			tracks.Stop()
		}
		return nil
	}
	if err != nil {
		m.state = MediaErrored
		return platformerrors.AsError(ctx, platformerrors.LayerClient, err,
			"failed to acquire local media")
	}
	m.tracks = tracks
	return nil
}

// Connect joins the room with the acquired tracks. Legal only after a
// successful AcquireLocalTracks.
func (m *MediaController) Connect(ctx context.Context, token, roomName string) error {
	m.mu.Lock()
	if m.state != MediaAcquiring || m.tracks == nil {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("cannot connect in state %s", state)
	}
	m.state = MediaConnecting
	tracks := m.tracks
	m.mu.Unlock()

	session, err := m.transport.Connect(ctx, token, roomName, tracks, m)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MediaConnecting {
		if session != nil {
			session.Disconnect()
		}
		return nil
	}
	if err != nil {
		m.state = MediaErrored
		m.releaseLocked()
		return platformerrors.AsError(ctx, platformerrors.LayerClient, err,
			"failed to connect to room")
	}
	m.session = session
	m.state = MediaConnected
	m.log.Info().Str("room", roomName).Msg("media session connected")
	return nil
}

// ToggleMic flips the microphone. No-op unless connected or acquiring.
func (m *MediaController) ToggleMic() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracks == nil {
		return m.micEnabled
	}
	m.micEnabled = !m.micEnabled
	if err := m.tracks.SetMicEnabled(m.micEnabled); err != nil {
		m.log.Warn().Err(err).Msg("toggle mic failed")
	}
	return m.micEnabled
}

// ToggleVideo flips the camera. No-op unless connected or acquiring.
func (m *MediaController) ToggleVideo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tracks == nil {
		return m.camEnabled
	}
	m.camEnabled = !m.camEnabled
	if err := m.tracks.SetCameraEnabled(m.camEnabled); err != nil {
		m.log.Warn().Err(err).Msg("toggle video failed")
	}
	return m.camEnabled
}

// Participants returns the identities in the room, or nil when not
// connected.
func (m *MediaController) Participants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.Participants()
}

// AttachedTracks returns the remote track IDs currently attached.
func (m *MediaController) AttachedTracks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.attached))
	for id := range m.attached {
		ids = append(ids, id)
	}
	return ids
}

// Disconnect tears the session down. It is idempotent and legal from
// every state, including mid-acquisition and mid-connect.
func (m *MediaController) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MediaEnded {
		return
	}
	m.state = MediaEnded
	m.releaseLocked()
	m.log.Debug().Msg("media session ended")
}

// releaseLocked frees the session and tracks. Caller holds the lock.
func (m *MediaController) releaseLocked() {
	if m.session != nil {
		m.session.Disconnect()
		m.session = nil
	}
	if m.tracks != nil {
		m.tracks.Stop()
		m.tracks = nil
	}
	m.attached = make(map[string]string)
}

// OnTrackSubscribed attaches a remote track. Attaching twice or after
// teardown is harmless.
func (m *MediaController) OnTrackSubscribed(identity, trackID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MediaConnected {
		return
	}
	m.attached[trackID] = identity
	m.log.Debug().Str("identity", identity).Str("track", trackID).Msg("remote track attached")
}

// OnTrackUnsubscribed detaches a remote track. Missing tracks are
// ignored.
func (m *MediaController) OnTrackUnsubscribed(identity, trackID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attached, trackID)
}

// OnParticipantDisconnected detaches all tracks of one participant.
func (m *MediaController) OnParticipantDisconnected(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for trackID, owner := range m.attached {
		if owner == identity {
			delete(m.attached, trackID)
		}
	}
}
