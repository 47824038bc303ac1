package callclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

const (
	bridgeWriteTimeout = 10 * time.Second
	bridgePongTimeout  = 60 * time.Second
)

// Bridge is the client end of the real-time event stream. It reads
// events into a Consumer and carries the one client-to-server event,
// availability switching, debounced so rapid toggling collapses into
// the final state.
type Bridge struct {
	conn     *websocket.Conn
	consumer *Consumer
	log      zerolog.Logger

	writeMu  sync.Mutex
	debounce func(func())

	closeOnce sync.Once
}

// DialBridge connects to the event endpoint. token may be empty in local
// development, where the server identifies the caller from debug headers.
func DialBridge(ctx context.Context, url, token string, consumer *Consumer, availabilityWindow time.Duration, log zerolog.Logger) (*Bridge, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerClient,
			platformerrors.ErrorTypeExternal, "failed to connect to event stream", err, "")
	}
	return &Bridge{
		conn:     conn,
		consumer: consumer,
		log:      log.With().Str("component", "event-bridge").Logger(),
		debounce: debounce.New(availabilityWindow),
	}, nil
}

// Run reads events until the connection drops or ctx is cancelled.
// Malformed frames are logged and skipped.
func (b *Bridge) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		b.Close()
	}()

	b.conn.SetReadDeadline(time.Now().Add(bridgePongTimeout))
	b.conn.SetPingHandler(func(appData string) error {
		b.conn.SetReadDeadline(time.Now().Add(bridgePongTimeout))
		b.writeMu.Lock()
		defer b.writeMu.Unlock()
		return b.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(bridgeWriteTimeout))
	})

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return platformerrors.AsError(ctx, platformerrors.LayerClient, err,
				"event stream closed")
		}
		var evt event.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			b.log.Warn().Err(err).Msg("dropping malformed event frame")
			continue
		}
		b.consumer.Handle(evt)
	}
}

// SwitchAvailability queues an availability flip for the doctor. Calls
// within the debounce window coalesce and only the last state is sent.
func (b *Bridge) SwitchAvailability(doctorID int64, isAvailable bool) {
	b.debounce(func() {
		evt := event.Event{
			Type:        event.TypeSwitchDoctorAvailability,
			DoctorID:    doctorID,
			IsAvailable: &isAvailable,
		}
		if err := b.send(evt); err != nil {
			b.log.Warn().Err(err).Int64("doctor_id", doctorID).
				Msg("failed to send availability switch")
		}
	})
}

func (b *Bridge) send(evt event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(bridgeWriteTimeout))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// Close shuts the connection down. Safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		b.writeMu.Lock()
		b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(bridgeWriteTimeout))
		b.writeMu.Unlock()
		b.conn.Close()
	})
}
