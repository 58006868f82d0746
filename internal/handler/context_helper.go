package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-schedule-api/internal/middleware"
	"github.com/noah-isme/tutor-schedule-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorID names the caller in audit logs; empty when the route is not secured.
func actorID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	return claims.UserID
}
