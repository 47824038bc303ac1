package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/responses"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RegisterEventRoutes registers the event bridge routes.
func RegisterEventRoutes(router gin.IRoutes, handler *handlers.EventsHandler) {
	router.GET("/events", serveEvents(handler))
	router.GET("/doctor/:id/availability", doctorAvailability(handler))
}

// serveEvents godoc
// @Summary      Open the event bridge
// @Description  Upgrades to a WebSocket and streams real-time events addressed to the authenticated user. The only accepted inbound message is SWITCH_DOCTOR_AVAILABILITY.
// @Tags         Events API
// @Success      101 {string} string "switching protocols"
// @Failure      401 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /events [get]
func serveEvents(handler *handlers.EventsHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := currentPrincipal(c)
		if principal.UserID == 0 {
			// Debug identities still need a user ID to address events.
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "event bridge requires an identified user")
			return
		}

		handler.ServeWS(c, principal)
	}
}

// doctorAvailability godoc
// @Summary      Get doctor availability
// @Description  Reports whether the doctor is currently accepting patients.
// @Tags         Events API
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} responses.AvailabilityResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /doctor/{id}/availability [get]
func doctorAvailability(handler *handlers.EventsHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || doctorID <= 0 {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid doctor id")
			return
		}

		c.JSON(http.StatusOK, responses.AvailabilityResponse{
			Success:     true,
			DoctorID:    doctorID,
			IsAvailable: handler.IsAvailable(doctorID),
		})
	}
}
