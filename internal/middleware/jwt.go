package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lostfound-api/internal/models"
	appErrors "github.com/noah-isme/lostfound-api/pkg/errors"
	"github.com/noah-isme/lostfound-api/pkg/logger"
	"github.com/noah-isme/lostfound-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated actor.
const ContextUserKey = "currentActor"

// Authenticator turns a bearer token into an actor.
type Authenticator interface {
	Authenticate(token string) (*models.Actor, error)
}

// JWT protects routes by requiring a valid bearer token from the identity
// gateway.
func JWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		actor, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, actor)
		c.Set(logger.ActorEmailKey, actor.Email)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by JWT, or nil.
func ActorFromContext(c *gin.Context) *models.Actor {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	actor, ok := value.(*models.Actor)
	if !ok {
		return nil
	}
	return actor
}
