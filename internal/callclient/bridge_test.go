package callclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/callclient"
	"teleclinic/consult-api/internal/domain/event"
)

// bridgeServer is the server end of a bridge connection. Frames written
// to send show up on the client; frames the client sends arrive on recv.
type bridgeServer struct {
	srv  *httptest.Server
	send chan event.Event
	recv chan event.Event
}

func newBridgeServer(t *testing.T) *bridgeServer {
	t.Helper()
	bs := &bridgeServer{
		send: make(chan event.Event, 8),
		recv: make(chan event.Event, 8),
	}
	upgrader := websocket.Upgrader{}
	bs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var evt event.Event
				if err := conn.ReadJSON(&evt); err != nil {
					return
				}
				bs.recv <- evt
			}
		}()
		for {
			select {
			case evt, ok := <-bs.send:
				if !ok {
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(time.Second))
					<-done
					conn.Close()
					return
				}
				if err := conn.WriteJSON(evt); err != nil {
					return
				}
			case <-done:
				conn.Close()
				return
			}
		}
	}))
	t.Cleanup(bs.srv.Close)
	return bs
}

func (bs *bridgeServer) url() string {
	return "ws" + strings.TrimPrefix(bs.srv.URL, "http")
}

func dialTestBridge(t *testing.T, bs *bridgeServer, consumer *callclient.Consumer, window time.Duration) *callclient.Bridge {
	t.Helper()
	bridge, err := callclient.DialBridge(context.Background(), bs.url(), "test-token", consumer, window, zerolog.Nop())
	if err != nil {
		t.Fatalf("DialBridge() error = %v", err)
	}
	t.Cleanup(bridge.Close)
	return bridge
}

func TestBridge_DeliversEventsToConsumer(t *testing.T) {
	bs := newBridgeServer(t)

	started := make(chan string, 1)
	consumer := callclient.NewConsumer(callclient.EventHandlers{
		OnConsultationStarted: func(consultationID, roomName string) {
			started <- consultationID + "/" + roomName
		},
	}, zerolog.Nop())
	bridge := dialTestBridge(t, bs, consumer, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- bridge.Run(ctx) }()

	bs.send <- event.Event{
		Type:           event.TypeConsultationStarted,
		ConsultationID: "cons_01",
		RoomName:       "room-1-2",
	}

	select {
	case got := <-started:
		if got != "cons_01/room-1-2" {
			t.Errorf("OnConsultationStarted got %q, want %q", got, "cons_01/room-1-2")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer never received the event")
	}

	close(bs.send)
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after server close")
	}
}

func TestBridge_SkipsMalformedFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	frames := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}))
	defer srv.Close()

	queueChanged := make(chan struct{}, 1)
	consumer := callclient.NewConsumer(callclient.EventHandlers{
		OnQueueChanged: func() { queueChanged <- struct{}{} },
	}, zerolog.Nop())
	bridge, err := callclient.DialBridge(context.Background(),
		"ws"+strings.TrimPrefix(srv.URL, "http"), "", consumer, time.Millisecond, zerolog.Nop())
	if err != nil {
		t.Fatalf("DialBridge() error = %v", err)
	}
	defer bridge.Close()
	go bridge.Run(context.Background())

	frames <- `{not json`
	frames <- `{"type":"QUEUE_CHANGED"}`
	close(frames)

	select {
	case <-queueChanged:
	case <-time.After(2 * time.Second):
		t.Fatal("frame after the malformed one was not delivered")
	}
}

func TestBridge_SwitchAvailabilityDebounces(t *testing.T) {
	bs := newBridgeServer(t)
	consumer := callclient.NewConsumer(callclient.EventHandlers{}, zerolog.Nop())
	bridge := dialTestBridge(t, bs, consumer, 50*time.Millisecond)
	go bridge.Run(context.Background())

	// Rapid toggling inside one window collapses into the final state.
	bridge.SwitchAvailability(7, true)
	bridge.SwitchAvailability(7, false)
	bridge.SwitchAvailability(7, true)

	select {
	case evt := <-bs.recv:
		if evt.Type != event.TypeSwitchDoctorAvailability {
			t.Errorf("event type = %q, want %q", evt.Type, event.TypeSwitchDoctorAvailability)
		}
		if evt.DoctorID != 7 {
			t.Errorf("doctor id = %d, want 7", evt.DoctorID)
		}
		if evt.IsAvailable == nil || !*evt.IsAvailable {
			t.Errorf("isAvailable = %v, want true", evt.IsAvailable)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced availability switch never arrived")
	}

	select {
	case evt := <-bs.recv:
		t.Errorf("unexpected second frame %+v, rapid toggles should coalesce", evt)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestBridge_RunStopsOnContextCancel(t *testing.T) {
	bs := newBridgeServer(t)
	consumer := callclient.NewConsumer(callclient.EventHandlers{}, zerolog.Nop())
	bridge := dialTestBridge(t, bs, consumer, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- bridge.Run(ctx) }()

	cancel()
	select {
	case err := <-runDone:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestBridge_DialFailure(t *testing.T) {
	consumer := callclient.NewConsumer(callclient.EventHandlers{}, zerolog.Nop())
	_, err := callclient.DialBridge(context.Background(),
		"ws://127.0.0.1:1/events", "", consumer, time.Millisecond, zerolog.Nop())
	if err == nil {
		t.Fatal("DialBridge() to a dead endpoint succeeded, want error")
	}
}
