package callclient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Call drives one doctor/patient pairing end to end: status resolution,
// queue membership, the media session and event-driven transitions. One
// Call instance serves one side of the pairing for the process lifetime;
// media controllers are created per session underneath it.
type Call struct {
	api       *Client
	resolver  *Resolver
	transport RoomTransport
	states    *StateMachine
	log       zerolog.Logger

	role      string
	userID    int64
	doctorID  int64
	patientID int64

	pollInterval time.Duration

	mu             sync.Mutex
	consumer       *Consumer
	media          *MediaController
	consultationID string
	roomName       string
	position       int
	estimatedWait  int
	poll           *Task
}

// NewCall creates a call driver for one user of the pair. role is
// "doctor" or "patient"; userID is that user's ID.
func NewCall(api *Client, transport RoomTransport, role string, userID, doctorID, patientID int64, pollInterval time.Duration, log zerolog.Logger) *Call {
	c := &Call{
		api:          api,
		resolver:     NewResolver(api, log),
		transport:    transport,
		states:       NewStateMachine(),
		log:          log.With().Str("component", "call").Str("role", role).Logger(),
		role:         role,
		userID:       userID,
		doctorID:     doctorID,
		patientID:    patientID,
		pollInterval: pollInterval,
	}
	c.consumer = NewConsumer(EventHandlers{
		OnPositionUpdate:      c.onPositionUpdate,
		OnConsultationStarted: c.onConsultationStarted,
		OnConsultationEnded:   c.onConsultationEnded,
	}, log)
	return c
}

// Consumer returns the event consumer to wire into a Bridge.
func (c *Call) Consumer() *Consumer {
	return c.consumer
}

// State returns the call's current state.
func (c *Call) State() CallState {
	return c.states.State()
}

// Position returns the last known queue position and estimated wait in
// seconds. Zero when not waiting.
func (c *Call) Position() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position, c.estimatedWait
}

// Open resolves the pair's state and acts on it: reconnects into an
// ongoing session, enters the queue, or stays idle. A resolver failure
// is returned to the caller but leaves the call idle; the caller decides
// when to try again.
func (c *Call) Open(ctx context.Context, autoJoin bool) (*StatusResult, error) {
	res, err := c.resolver.Check(ctx, c.doctorID, c.patientID, autoJoin)
	if err != nil {
		return res, err
	}

	switch res.Action {
	case ActionRejoin, ActionInConsultation:
		if err := c.connect(ctx, res.ConsultationID, res.RoomName); err != nil {
			return res, err
		}
	case ActionJoined, ActionWait:
		c.states.TransitionIf(CallWaiting, CallIdle, CallEnded, CallErrored)
		c.mu.Lock()
		c.position = res.Position
		c.estimatedWait = res.EstimatedWait
		c.mu.Unlock()
	case ActionEnded:
		c.states.TransitionIf(CallEnded, CallIdle, CallWaiting, CallConnecting, CallConnected)
	case ActionNone, ActionConflict:
		// Nothing to do; conflict means the counterpart is busy with
		// someone else and the user picks another doctor.
	}
	return res, nil
}

// Start begins the consultation as the doctor and connects to its room.
func (c *Call) Start(ctx context.Context) error {
	cons, err := c.api.StartConsultation(ctx, c.doctorID, c.patientID)
	if err != nil {
		return err
	}
	return c.connect(ctx, cons.ID, cons.RoomName)
}

// Rejoin re-enters a known ongoing consultation.
func (c *Call) Rejoin(ctx context.Context, consultationID string) error {
	cons, err := c.api.Rejoin(ctx, consultationID, c.userID, c.role)
	if err != nil {
		return err
	}
	return c.connect(ctx, cons.ID, cons.RoomName)
}

// LeaveQueue withdraws the patient from the doctor's queue.
func (c *Call) LeaveQueue(ctx context.Context) error {
	if _, err := c.api.LeaveQueue(ctx, c.patientID, c.doctorID); err != nil {
		return err
	}
	c.states.TransitionIf(CallIdle, CallWaiting)
	c.mu.Lock()
	c.position = 0
	c.estimatedWait = 0
	c.mu.Unlock()
	return nil
}

// End finishes the consultation as the doctor and tears the session down.
func (c *Call) End(ctx context.Context, notes string) error {
	c.mu.Lock()
	consultationID := c.consultationID
	c.mu.Unlock()
	if consultationID == "" {
		return fmt.Errorf("no active consultation to end")
	}
	if err := c.api.EndConsultation(ctx, consultationID, c.doctorID, notes); err != nil {
		return err
	}
	c.teardown(consultationID)
	return nil
}

// Hangup tears the local session down without ending the consultation
// server-side. Idempotent from any state.
func (c *Call) Hangup() {
	c.mu.Lock()
	consultationID := c.consultationID
	c.mu.Unlock()
	c.teardown(consultationID)
}

// ToggleMic flips the local microphone and reports the new state.
func (c *Call) ToggleMic() bool {
	c.mu.Lock()
	media := c.media
	c.mu.Unlock()
	if media == nil {
		return false
	}
	return media.ToggleMic()
}

// ToggleVideo flips the local camera and reports the new state.
func (c *Call) ToggleVideo() bool {
	c.mu.Lock()
	media := c.media
	c.mu.Unlock()
	if media == nil {
		return false
	}
	return media.ToggleVideo()
}

// ParticipantCount reports how many participants are in the room,
// preferring the server's view and falling back to the local session
// when the server is unreachable.
func (c *Call) ParticipantCount(ctx context.Context) int {
	c.mu.Lock()
	roomName := c.roomName
	media := c.media
	c.mu.Unlock()
	if roomName == "" {
		return 0
	}
	if ids, err := c.api.Participants(ctx, roomName); err == nil {
		return len(ids)
	}
	if media == nil {
		return 0
	}
	return len(media.Participants())
}

func (c *Call) identity() string {
	return fmt.Sprintf("%s-%d", c.role, c.userID)
}

func (c *Call) connect(ctx context.Context, consultationID, roomName string) error {
	if !c.states.TransitionIf(CallConnecting, CallIdle, CallWaiting, CallEnded, CallErrored) {
		// Already connecting or connected.
		return nil
	}

	media := NewMediaController(c.transport, c.log)
	c.mu.Lock()
	c.media = media
	c.consultationID = consultationID
	c.roomName = roomName
	c.position = 0
	c.estimatedWait = 0
	c.mu.Unlock()

	if err := media.AcquireLocalTracks(ctx); err != nil {
		c.fail(err)
		return err
	}
	token, err := c.api.VideoToken(ctx, c.identity(), roomName)
	if err != nil {
		c.fail(err)
		return err
	}
	if err := media.Connect(ctx, token, roomName); err != nil {
		c.fail(err)
		return err
	}
	if !c.states.TransitionIf(CallConnected, CallConnecting) {
		// Torn down while connecting.
		media.Disconnect()
		return nil
	}

	c.mu.Lock()
	if c.pollInterval > 0 && c.poll == nil {
		c.poll = Every(context.Background(), c.pollInterval, func(ctx context.Context) {
			count := c.ParticipantCount(ctx)
			c.log.Debug().Int("participants", count).Msg("room occupancy")
		})
	}
	c.mu.Unlock()

	c.log.Info().Str("consultation_id", consultationID).Str("room", roomName).
		Msg("call connected")
	return nil
}

func (c *Call) fail(err error) {
	c.states.TransitionIf(CallErrored, CallConnecting, CallConnected)
	c.mu.Lock()
	media := c.media
	c.media = nil
	c.mu.Unlock()
	if media != nil {
		media.Disconnect()
	}
	c.log.Warn().Err(err).Msg("call setup failed")
}

func (c *Call) teardown(consultationID string) {
	if consultationID != "" {
		c.consumer.MarkEnded(consultationID)
	}
	c.states.TransitionIf(CallEnded, CallIdle, CallWaiting, CallConnecting, CallConnected, CallErrored)

	c.mu.Lock()
	media := c.media
	poll := c.poll
	c.media = nil
	c.poll = nil
	c.consultationID = ""
	c.roomName = ""
	c.mu.Unlock()

	if poll != nil {
		poll.Stop()
	}
	if media != nil {
		media.Disconnect()
	}
}

func (c *Call) onPositionUpdate(position, estimatedWait, queueLength int) {
	c.mu.Lock()
	c.position = position
	c.estimatedWait = estimatedWait
	c.mu.Unlock()
}

func (c *Call) onConsultationStarted(consultationID, roomName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.connect(ctx, consultationID, roomName); err != nil {
		c.log.Warn().Err(err).Str("consultation_id", consultationID).
			Msg("failed to join started consultation")
	}
}

func (c *Call) onConsultationEnded(consultationID string) {
	c.mu.Lock()
	current := c.consultationID
	c.mu.Unlock()
	if current != "" && current != consultationID {
		// Ended event for a different session; nothing to tear down.
		return
	}
	c.teardown(consultationID)
}
