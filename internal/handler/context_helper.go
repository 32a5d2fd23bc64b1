package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cahsa-api/internal/middleware"
	"github.com/noah-isme/cahsa-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	if !ok || actor.AdvisorID == "" {
		return models.Actor{}, false
	}
	return actor, true
}
