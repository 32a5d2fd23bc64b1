package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
	"github.com/noah-isme/cahsa-api/pkg/logger"
	"github.com/noah-isme/cahsa-api/pkg/response"
)

// Gin context keys set by JWT.
const (
	ContextClaimsKey = "currentClaims"
	ContextActorKey  = "currentActor"
)

// TokenValidator parses access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT protects routes by requiring a valid access token and exposes the
// advisor behind it as a models.Actor.
func JWT(validator TokenValidator) gin.HandlerFunc {
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

		claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextActorKey, claims.Actor())
		c.Set(logger.ActorKey, claims.AdvisorID)
		c.Next()
	}
}
