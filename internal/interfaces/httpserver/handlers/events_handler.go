package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/domain/availability"
	"teleclinic/consult-api/internal/domain/event"
	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/infrastructure/events"
)

// EventsHandler upgrades event bridge connections and answers
// availability reads.
type EventsHandler struct {
	hub          *events.Hub
	availability *availability.Service
	upgrader     websocket.Upgrader
	log          zerolog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *events.Hub, avail *availability.Service, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:          hub,
		availability: avail,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin from the web app;
			// authentication happens at the bearer-token layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "events-handler").Logger(),
	}
}

// ServeWS upgrades the request and pumps events until disconnect.
func (h *EventsHandler) ServeWS(c *gin.Context, principal auth.Principal) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	to := event.Recipient{Role: string(principal.Role), UserID: principal.UserID}
	h.hub.HandleConnection(c.Request.Context(), to, conn)
}

// IsAvailable reports a doctor's availability flag.
func (h *EventsHandler) IsAvailable(doctorID int64) bool {
	return h.availability.IsAvailable(doctorID)
}
