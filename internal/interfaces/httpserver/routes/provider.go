package routes

import (
	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/routes/api"
)

// Provider holds all route providers.
type Provider struct {
	API           *api.Routes
	authValidator *auth.Validator
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider, authValidator *auth.Validator) *Provider {
	return &Provider{
		API:           api.NewRoutes(handlerProvider),
		authValidator: authValidator,
	}
}

// Register registers all routes on the engine.
func (p *Provider) Register(engine *gin.Engine) {
	// Apply auth middleware only to API routes
	if p.authValidator != nil {
		p.API.Register(engine, p.authValidator.Middleware())
	} else {
		p.API.Register(engine, nil)
	}
}
