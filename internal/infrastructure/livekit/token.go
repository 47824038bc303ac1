package livekit

import (
	"time"

	"github.com/livekit/protocol/auth"

	"teleclinic/consult-api/internal/config"
	"teleclinic/consult-api/internal/infrastructure/metrics"
)

// TokenGenerator generates LiveKit access tokens scoped to one identity
// and one consultation room.
type TokenGenerator struct {
	apiKey    string
	apiSecret string
}

// NewTokenGenerator creates a new token generator.
func NewTokenGenerator(cfg *config.Config) *TokenGenerator {
	return &TokenGenerator{
		apiKey:    cfg.LiveKitAPIKey,
		apiSecret: cfg.LiveKitAPISecret,
	}
}

// Generate creates a LiveKit access token for the given room and identity.
func (g *TokenGenerator) Generate(room, identity string, ttl time.Duration) (string, error) {
	start := time.Now()
	defer func() {
		metrics.TokenGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	// Both sides of a consultation publish and subscribe.
	full := true
	grant := &auth.VideoGrant{
		RoomJoin:       true,
		Room:           room,
		CanPublish:     &full,
		CanSubscribe:   &full,
		CanPublishData: &full,
	}

	at := auth.NewAccessToken(g.apiKey, g.apiSecret).
		AddGrant(grant).
		SetIdentity(identity).
		SetValidFor(ttl)

	return at.ToJWT()
}
