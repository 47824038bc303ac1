package events_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/config"
	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/infrastructure/events"
)

// recordingSwitcher captures availability switches from the read pump.
type recordingSwitcher struct {
	mu       sync.Mutex
	switches []bool
}

func (r *recordingSwitcher) Switch(ctx context.Context, doctorID int64, isAvailable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.switches = append(r.switches, isAvailable)
}

func (r *recordingSwitcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.switches)
}

func newTestHub(t *testing.T, switcher events.AvailabilitySwitcher) *events.Hub {
	t.Helper()
	cfg := &config.Config{
		WSWriteTimeout: 5 * time.Second,
		WSPingInterval: time.Minute,
	}
	hub := events.NewHub(cfg, switcher, zerolog.Nop())
	t.Cleanup(hub.CloseAll)
	return hub
}

// serveHub exposes the hub over a test websocket endpoint that derives
// the recipient from query parameters.
func serveHub(t *testing.T, hub *events.Hub) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var userID int64
		if role == "doctor" {
			userID = 1
		} else {
			userID = 2
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.HandleConnection(r.Context(), event.Recipient{Role: role, UserID: userID}, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var evt event.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return evt
}

func waitForConnections(t *testing.T, hub *events.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectedUsers() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d connections, have %d", want, hub.ConnectedUsers())
}

func TestHub_PublishReachesRecipient(t *testing.T) {
	hub := newTestHub(t, nil)
	url := serveHub(t, hub)

	patient := dial(t, url+"?role=patient")
	waitForConnections(t, hub, 1)

	hub.Publish(context.Background(), event.Recipient{Role: "patient", UserID: 2}, event.Event{
		Type:           event.TypeConsultationStarted,
		ConsultationID: "cons_abc",
		RoomName:       "room-2",
	})

	evt := readEvent(t, patient)
	if evt.Type != event.TypeConsultationStarted {
		t.Errorf("type = %s, want CONSULTATION_STARTED", evt.Type)
	}
	if evt.ConsultationID != "cons_abc" || evt.RoomName != "room-2" {
		t.Errorf("unexpected payload: %+v", evt)
	}
}

func TestHub_PublishIsScopedToRecipient(t *testing.T) {
	hub := newTestHub(t, nil)
	url := serveHub(t, hub)

	doctor := dial(t, url+"?role=doctor")
	patient := dial(t, url+"?role=patient")
	waitForConnections(t, hub, 2)

	hub.Publish(context.Background(), event.Recipient{Role: "doctor", UserID: 1}, event.Event{
		Type:     event.TypeQueueChanged,
		DoctorID: 1,
	})

	evt := readEvent(t, doctor)
	if evt.Type != event.TypeQueueChanged {
		t.Errorf("type = %s, want QUEUE_CHANGED", evt.Type)
	}

	// The patient connection must stay silent.
	patient.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := patient.ReadMessage(); err == nil {
		t.Error("patient received an event addressed to the doctor")
	}
}

func TestHub_PublishWithoutConnectionIsDropped(t *testing.T) {
	hub := newTestHub(t, nil)

	// No panic, no error: delivery is best-effort.
	hub.Publish(context.Background(), event.Recipient{Role: "patient", UserID: 99}, event.Event{
		Type: event.TypePositionUpdate,
	})
}

func TestHub_FanOutToMultipleSessions(t *testing.T) {
	hub := newTestHub(t, nil)
	url := serveHub(t, hub)

	// The same patient on two tabs; both sessions share one recipient.
	first := dial(t, url+"?role=patient")
	second := dial(t, url+"?role=patient")
	waitForConnections(t, hub, 1)
	time.Sleep(50 * time.Millisecond)

	hub.Publish(context.Background(), event.Recipient{Role: "patient", UserID: 2}, event.Event{
		Type:     event.TypePositionUpdate,
		Position: 3,
	})

	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		if evt.Position != 3 {
			t.Errorf("position = %d, want 3", evt.Position)
		}
	}
}

func TestHub_DoctorAvailabilitySwitch(t *testing.T) {
	switcher := &recordingSwitcher{}
	hub := newTestHub(t, switcher)
	url := serveHub(t, hub)

	doctor := dial(t, url+"?role=doctor")
	waitForConnections(t, hub, 1)

	isAvailable := true
	payload, _ := json.Marshal(event.Event{
		Type:        event.TypeSwitchDoctorAvailability,
		DoctorID:    1,
		IsAvailable: &isAvailable,
	})
	if err := doctor.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && switcher.count() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if switcher.count() != 1 {
		t.Fatalf("expected 1 availability switch, got %d", switcher.count())
	}
}

func TestHub_DisconnectCleansUp(t *testing.T) {
	hub := newTestHub(t, nil)
	url := serveHub(t, hub)

	conn := dial(t, url+"?role=patient")
	waitForConnections(t, hub, 1)

	conn.Close()
	waitForConnections(t, hub, 0)
}
