// Package events implements the real-time event bridge over WebSocket.
//
// Each authenticated user holds at most a handful of sessions (one per
// open tab); events are addressed to a user, not a connection, and fan
// out to every live session of that user. Delivery is best-effort: a
// slow or absent session drops the event and the client reconciles on
// its next status check.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/config"
	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/infrastructure/metrics"
)

// AvailabilitySwitcher receives the doctor availability toggle carried
// on the inbound side of the bridge.
type AvailabilitySwitcher interface {
	Switch(ctx context.Context, doctorID int64, isAvailable bool)
}

const sendBuffer = 32

type session struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	to   event.Recipient
}

// Hub routes events to connected sessions. It implements event.Publisher.
type Hub struct {
	mu       sync.RWMutex
	sessions map[event.Recipient]map[*session]struct{}

	writeTimeout time.Duration
	pingInterval time.Duration
	availability AvailabilitySwitcher
	log          zerolog.Logger
}

// NewHub creates an event hub from config.
func NewHub(cfg *config.Config, availability AvailabilitySwitcher, log zerolog.Logger) *Hub {
	return &Hub{
		sessions:     make(map[event.Recipient]map[*session]struct{}),
		writeTimeout: cfg.WSWriteTimeout,
		pingInterval: cfg.WSPingInterval,
		availability: availability,
		log:          log.With().Str("component", "event-hub").Logger(),
	}
}

// Publish implements event.Publisher. It never blocks; sessions whose
// send buffer is full drop the event.
func (h *Hub) Publish(ctx context.Context, to event.Recipient, evt event.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(evt.Type)).Msg("failed to marshal event")
		return
	}

	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[to]))
	for s := range h.sessions[to] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	delivered := 0
	for _, s := range targets {
		select {
		case s.send <- payload:
			delivered++
		default:
			h.log.Warn().
				Str("role", to.Role).
				Int64("user_id", to.UserID).
				Str("type", string(evt.Type)).
				Msg("session send buffer full, dropping event")
		}
	}
	if delivered > 0 {
		metrics.EventsPublished.WithLabelValues(string(evt.Type)).Inc()
	}
}

// HandleConnection serves one WebSocket session until the peer
// disconnects or ctx is cancelled. It owns the connection lifecycle.
func (h *Hub) HandleConnection(ctx context.Context, to event.Recipient, conn *websocket.Conn) {
	s := &session{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		to:   to,
	}

	h.mu.Lock()
	if h.sessions[to] == nil {
		h.sessions[to] = make(map[*session]struct{})
	}
	h.sessions[to][s] = struct{}{}
	h.mu.Unlock()

	metrics.EventConnections.Inc()
	h.log.Info().Str("role", to.Role).Int64("user_id", to.UserID).Msg("session connected")

	defer func() {
		h.mu.Lock()
		delete(h.sessions[to], s)
		if len(h.sessions[to]) == 0 {
			delete(h.sessions, to)
		}
		h.mu.Unlock()

		// The send channel stays open; writePump exits via done so a
		// concurrent Publish holding a stale session can never panic.
		close(s.done)
		_ = conn.Close()
		metrics.EventConnections.Dec()
		h.log.Info().Str("role", to.Role).Int64("user_id", to.UserID).Msg("session disconnected")
	}()

	go h.writePump(s)
	h.readPump(ctx, s)
}

func (h *Hub) writePump(s *session) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound frames. The only meaningful inbound message
// is the doctor availability toggle; everything else is ignored.
func (h *Hub) readPump(ctx context.Context, s *session) {
	s.conn.SetReadLimit(4 << 10)
	deadline := 2 * h.pingInterval
	_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("unexpected session close")
			}
			return
		}

		var evt event.Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.log.Warn().Err(err).Msg("malformed inbound event")
			continue
		}

		switch evt.Type {
		case event.TypeSwitchDoctorAvailability:
			if s.to.Role != "doctor" || evt.IsAvailable == nil {
				continue
			}
			h.availability.Switch(ctx, s.to.UserID, *evt.IsAvailable)
		default:
			h.log.Debug().Str("type", string(evt.Type)).Msg("ignoring inbound event")
		}
	}
}

// ConnectedUsers returns the number of distinct connected recipients.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll force-closes every session, used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.sessions {
		for s := range set {
			_ = s.conn.Close()
		}
	}
}
