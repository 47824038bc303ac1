// Package api registers the /api route tree.
package api

import (
	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
)

// Routes holds the api route configuration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes creates a new api routes instance.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{
		handlers: handlerProvider,
	}
}

// Register registers all api routes on the engine.
// If authMiddleware is provided, it will be applied to all api routes.
func (r *Routes) Register(engine *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := engine.Group("/api")
	if authMiddleware != nil {
		api.Use(authMiddleware)
	}
	RegisterConsultationRoutes(api, r.handlers.Consultation)
	RegisterQueueRoutes(api, r.handlers.Queue)
	RegisterVideoRoutes(api, r.handlers.Video)
	RegisterPaymentRoutes(api, r.handlers.Payment)
	RegisterEventRoutes(api, r.handlers.Events)
}

// currentPrincipal fetches the authenticated principal, defaulting to an
// anonymous patient in local development.
func currentPrincipal(c *gin.Context) auth.Principal {
	principal, _ := auth.CurrentPrincipal(c)
	return principal
}

// mayActAs reports whether the principal is allowed to act as the given
// role and user. Unidentified principals (auth disabled) pass.
func mayActAs(p auth.Principal, role auth.Role, userID int64) bool {
	if p.UserID == 0 {
		return true
	}
	return p.Role == role && p.UserID == userID
}
