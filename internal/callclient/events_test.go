package callclient_test

import (
	"testing"

	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/callclient"
	"teleclinic/consult-api/internal/domain/event"
)

func TestConsumer_RoutesEvents(t *testing.T) {
	var gotPosition, gotWait, gotLength int
	var startedID, startedRoom string
	var queueChanges int

	c := callclient.NewConsumer(callclient.EventHandlers{
		OnPositionUpdate: func(position, estimatedWait, queueLength int) {
			gotPosition, gotWait, gotLength = position, estimatedWait, queueLength
		},
		OnConsultationStarted: func(consultationID, roomName string) {
			startedID, startedRoom = consultationID, roomName
		},
		OnQueueChanged: func() { queueChanges++ },
	}, zerolog.Nop())

	c.Handle(event.Event{Type: event.TypePositionUpdate, Position: 3, EstimatedWait: 1800, QueueLength: 5})
	if gotPosition != 3 || gotWait != 1800 || gotLength != 5 {
		t.Errorf("position update not delivered: %d %d %d", gotPosition, gotWait, gotLength)
	}

	c.Handle(event.Event{Type: event.TypeConsultationStarted, ConsultationID: "cons_abc", RoomName: "room-2"})
	if startedID != "cons_abc" || startedRoom != "room-2" {
		t.Errorf("started event not delivered: %s %s", startedID, startedRoom)
	}

	c.Handle(event.Event{Type: event.TypeQueueChanged})
	c.Handle(event.Event{Type: event.TypePatientJoinedQueue, PatientID: 7})
	c.Handle(event.Event{Type: event.TypePatientLeftQueue, PatientID: 7})
	if queueChanges != 3 {
		t.Errorf("expected 3 queue change notifications, got %d", queueChanges)
	}

	// Unknown types are ignored, nil handlers are skipped.
	c.Handle(event.Event{Type: "SOMETHING_NEW"})
	c.Handle(event.Event{Type: event.TypeConsultationEnded, ConsultationID: "cons_abc"})
}

// A started event arriving after the ended event for the same
// consultation must not be delivered.
func TestConsumer_RejectsStaleStart(t *testing.T) {
	var started, ended int

	c := callclient.NewConsumer(callclient.EventHandlers{
		OnConsultationStarted: func(consultationID, roomName string) { started++ },
		OnConsultationEnded:   func(consultationID string) { ended++ },
	}, zerolog.Nop())

	c.Handle(event.Event{Type: event.TypeConsultationStarted, ConsultationID: "cons_abc", RoomName: "room-2"})
	c.Handle(event.Event{Type: event.TypeConsultationEnded, ConsultationID: "cons_abc"})

	// Straggler delivered late, e.g. after a reconnect.
	c.Handle(event.Event{Type: event.TypeConsultationStarted, ConsultationID: "cons_abc", RoomName: "room-2"})
	c.Handle(event.Event{Type: event.TypeParticipantRejoined, ConsultationID: "cons_abc"})

	if started != 1 {
		t.Errorf("expected 1 start delivery, got %d", started)
	}
	if ended != 1 {
		t.Errorf("expected 1 end delivery, got %d", ended)
	}

	// A different consultation is unaffected.
	c.Handle(event.Event{Type: event.TypeConsultationStarted, ConsultationID: "cons_def", RoomName: "room-2"})
	if started != 2 {
		t.Errorf("expected new consultation to be delivered, got %d starts", started)
	}
}

func TestConsumer_MarkEnded(t *testing.T) {
	var started int
	c := callclient.NewConsumer(callclient.EventHandlers{
		OnConsultationStarted: func(consultationID, roomName string) { started++ },
	}, zerolog.Nop())

	// Client ended the call locally before any server event arrived.
	c.MarkEnded("cons_abc")
	c.Handle(event.Event{Type: event.TypeConsultationStarted, ConsultationID: "cons_abc", RoomName: "room-2"})
	if started != 0 {
		t.Errorf("expected no delivery for locally ended consultation, got %d", started)
	}
}
