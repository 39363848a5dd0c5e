package auth

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/signald/serverconf/internal/config"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

// ActorContextKey is the gin context key holding the authenticated subject
const ActorContextKey = "actor"

// AnonymousActor is recorded when authentication is disabled
const AnonymousActor = "anonymous"

// Authenticator guards write endpoints
type Authenticator interface {
	// Middleware returns a Gin middleware for authentication
	Middleware() gin.HandlerFunc
}

// New builds the authenticator selected by cfg.Type
func New(cfg config.AuthConfig) (Authenticator, error) {
	switch cfg.Type {
	case "jwt", "":
		return NewTokenAuthenticator(cfg.JWTSecret)
	case "none":
		return noneAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s (supported: jwt, none)", cfg.Type)
	}
}

// ActorFromContext returns the subject stored by the middleware
func ActorFromContext(c *gin.Context) string {
	if actor := c.GetString(ActorContextKey); actor != "" {
		return actor
	}
	return AnonymousActor
}

type noneAuthenticator struct{}

func (noneAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ActorContextKey, AnonymousActor)
		c.Next()
	}
}
