package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/requests"
	"teleclinic/consult-api/internal/interfaces/httpserver/responses"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RegisterVideoRoutes registers the media token and room routes.
func RegisterVideoRoutes(router gin.IRoutes, handler *handlers.VideoHandler) {
	router.POST("/video/token", issueToken(handler))
	router.POST("/video/room", ensureRoom(handler))
	router.GET("/video/room/:sid/participants", listParticipants(handler))
}

// issueToken godoc
// @Summary      Issue a media access token
// @Description  Mints a room-scoped access token. The identity must belong to the authenticated user and the room must host an ongoing consultation the user participates in.
// @Tags         Video API
// @Accept       json
// @Produce      json
// @Param        request body requests.VideoToken true "Identity and room"
// @Success      200 {object} responses.TokenResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /video/token [post]
func issueToken(handler *handlers.VideoHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.VideoToken
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		role, userID, ok := resolveIdentity(principal, req.Identity)
		if !ok {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "identity does not match the authenticated user")
			return
		}

		token, err := handler.IssueToken(c.Request.Context(), req.Identity, req.RoomName, userID, role)
		if err != nil {
			responses.HandleError(c, err, "failed to issue token")
			return
		}

		c.JSON(http.StatusOK, responses.TokenResponse{
			Success:   true,
			Token:     token.Value,
			Identity:  token.Identity,
			RoomName:  token.RoomName,
			ExpiresAt: token.ExpiresAt,
		})
	}
}

// ensureRoom godoc
// @Summary      Provision a media room
// @Description  Ensures the named room exists on the media server.
// @Tags         Video API
// @Accept       json
// @Produce      json
// @Param        request body requests.VideoRoom true "Room to provision"
// @Success      200 {object} responses.AckResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /video/room [post]
func ensureRoom(handler *handlers.VideoHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.VideoRoom
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		if err := handler.EnsureRoom(c.Request.Context(), req.RoomName); err != nil {
			responses.HandleError(c, err, "failed to provision room")
			return
		}

		c.JSON(http.StatusOK, responses.AckResponse{Success: true, Message: "room ready"})
	}
}

// listParticipants godoc
// @Summary      List room participants
// @Description  Enumerates participant identities for a room.
// @Tags         Video API
// @Produce      json
// @Param        sid path string true "Room name"
// @Success      200 {object} responses.ParticipantsResponse
// @Failure      502 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /video/room/{sid}/participants [get]
func listParticipants(handler *handlers.VideoHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		room := c.Param("sid")

		identities, err := handler.Participants(c.Request.Context(), room)
		if err != nil {
			responses.HandleError(c, err, "failed to list participants")
			return
		}

		c.JSON(http.StatusOK, responses.ParticipantsResponse{
			Success:      true,
			Participants: identities,
		})
	}
}

// resolveIdentity verifies the requested identity against the principal
// and returns the role and user ID it encodes. With auth disabled the
// identity itself is trusted and parsed.
func resolveIdentity(p auth.Principal, identity string) (role string, userID int64, ok bool) {
	if p.UserID > 0 {
		if identity != p.Identity() {
			return "", 0, false
		}
		return string(p.Role), p.UserID, true
	}

	role, rawID, found := strings.Cut(identity, "-")
	if !found || (role != "doctor" && role != "patient") {
		return "", 0, false
	}
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 {
		return "", 0, false
	}
	return role, userID, true
}
