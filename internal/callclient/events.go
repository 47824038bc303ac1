package callclient

import (
	"sync"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/event"
)

// EventHandlers are the application callbacks the consumer fans events
// out to. Nil handlers are skipped.
type EventHandlers struct {
	OnPositionUpdate      func(position, estimatedWait, queueLength int)
	OnConsultationStarted func(consultationID, roomName string)
	OnConsultationEnded   func(consultationID string)
	OnParticipantRejoined func(consultationID string)
	OnQueueChanged        func()
	OnAvailabilityChanged func(doctorID int64, isAvailable bool)
}

// Consumer routes incoming bridge events to handlers, rejecting events
// that arrive out of order for a consultation the client already tore
// down. Bridge delivery is best-effort and unordered across reconnects,
// so a CONSULTATION_STARTED can arrive after the matching
// CONSULTATION_ENDED was processed; the consumer must not let such a
// straggler re-open the call.
type Consumer struct {
	handlers EventHandlers
	log      zerolog.Logger

	mu    sync.Mutex
	ended map[string]struct{}
}

// NewConsumer creates a consumer over the given handlers.
func NewConsumer(handlers EventHandlers, log zerolog.Logger) *Consumer {
	return &Consumer{
		handlers: handlers,
		log:      log.With().Str("component", "event-consumer").Logger(),
		ended:    make(map[string]struct{}),
	}
}

// Handle processes one event. Unknown types are ignored.
func (c *Consumer) Handle(evt event.Event) {
	switch evt.Type {
	case event.TypePositionUpdate:
		if c.handlers.OnPositionUpdate != nil {
			c.handlers.OnPositionUpdate(evt.Position, evt.EstimatedWait, evt.QueueLength)
		}

	case event.TypeConsultationStarted:
		if c.isEnded(evt.ConsultationID) {
			c.log.Debug().Str("consultation_id", evt.ConsultationID).
				Msg("ignoring start event for ended consultation")
			return
		}
		if c.handlers.OnConsultationStarted != nil {
			c.handlers.OnConsultationStarted(evt.ConsultationID, evt.RoomName)
		}

	case event.TypeConsultationEnded:
		c.markEnded(evt.ConsultationID)
		if c.handlers.OnConsultationEnded != nil {
			c.handlers.OnConsultationEnded(evt.ConsultationID)
		}

	case event.TypeParticipantRejoined:
		if c.isEnded(evt.ConsultationID) {
			return
		}
		if c.handlers.OnParticipantRejoined != nil {
			c.handlers.OnParticipantRejoined(evt.ConsultationID)
		}

	case event.TypeQueueChanged, event.TypePatientJoinedQueue, event.TypePatientLeftQueue:
		// All three invalidate the local queue view; the receiver
		// re-fetches the authoritative list rather than patching it.
		if c.handlers.OnQueueChanged != nil {
			c.handlers.OnQueueChanged()
		}

	case event.TypeSwitchDoctorAvailability:
		if c.handlers.OnAvailabilityChanged != nil && evt.IsAvailable != nil {
			c.handlers.OnAvailabilityChanged(evt.DoctorID, *evt.IsAvailable)
		}

	default:
		c.log.Debug().Str("type", string(evt.Type)).Msg("ignoring unknown event type")
	}
}

// MarkEnded records a consultation the client finished locally, so late
// events for it are dropped. Called when the client itself ends a call
// without having seen the server's ended event yet.
func (c *Consumer) MarkEnded(consultationID string) {
	c.markEnded(consultationID)
}

func (c *Consumer) markEnded(consultationID string) {
	if consultationID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ended[consultationID] = struct{}{}
}

func (c *Consumer) isEnded(consultationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ended[consultationID]
	return ok
}
