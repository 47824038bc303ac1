package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"teleclinic/consult-api/internal/config"
)

// Role identifies the kind of user behind a request.
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	Subject string
	Role    Role
	UserID  int64
}

// Identity returns the media-transport participant identity for the
// principal. Doctors and patients get stable, role-prefixed identities so
// reconnections resolve to the same participant.
func (p Principal) Identity() string {
	return fmt.Sprintf("%s-%d", p.Role, p.UserID)
}

const principalKey = "principal"

// Validator validates JWT bearer tokens against a JWKS endpoint.
type Validator struct {
	cfg  *config.Config
	log  zerolog.Logger
	jwks *keyfunc.JWKS
}

// NewValidator initializes the JWKS key set when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	if !cfg.AuthEnabled {
		return &Validator{cfg: cfg, log: log}, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:              ctx,
		RefreshInterval:  5 * time.Minute,
		RefreshRateLimit: time.Minute,
		RefreshErrorHandler: func(err error) {
			log.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return &Validator{cfg: cfg, log: log, jwks: jwks}, nil
}

// Middleware enforces JWT bearer auth when enabled. When auth is disabled
// (local development), identity is taken from X-Debug-Role/X-Debug-User-ID
// headers so flows remain testable end to end.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		return func(c *gin.Context) {
			principal := Principal{Subject: "anonymous", Role: RolePatient}
			if role := strings.TrimSpace(c.GetHeader("X-Debug-Role")); role == string(RoleDoctor) {
				principal.Role = RoleDoctor
			}
			if id := c.GetHeader("X-Debug-User-ID"); id != "" {
				fmt.Sscanf(id, "%d", &principal.UserID)
			}
			c.Set(principalKey, principal)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, v.jwks.Keyfunc,
			jwt.WithIssuer(v.cfg.AuthIssuer),
			jwt.WithAudience(v.cfg.AuthAudience),
			jwt.WithValidMethods([]string{"RS256", "ES256"}),
		)
		if err != nil || !token.Valid {
			v.log.Debug().Err(err).Msg("jwt validation failed")
			abortUnauthorized(c, "invalid token")
			return
		}

		principal, err := principalFromClaims(token.Claims)
		if err != nil {
			v.log.Debug().Err(err).Msg("jwt claims rejected")
			abortUnauthorized(c, "invalid token claims")
			return
		}

		c.Set("auth_token", token)
		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by the auth middleware.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	val, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	principal, ok := val.(Principal)
	return principal, ok
}

func principalFromClaims(claims jwt.Claims) (Principal, error) {
	mapClaims, ok := claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fmt.Errorf("unexpected claims type %T", claims)
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return Principal{}, fmt.Errorf("missing sub claim")
	}

	roleClaim, _ := mapClaims["role"].(string)
	role := Role(roleClaim)
	if role != RoleDoctor && role != RolePatient {
		return Principal{}, fmt.Errorf("unknown role %q", roleClaim)
	}

	// Numeric claims arrive as float64 through encoding/json.
	uidClaim, ok := mapClaims["uid"].(float64)
	if !ok || uidClaim <= 0 {
		return Principal{}, fmt.Errorf("missing or invalid uid claim")
	}

	return Principal{Subject: sub, Role: role, UserID: int64(uidClaim)}, nil
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
