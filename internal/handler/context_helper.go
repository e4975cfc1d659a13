package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/skillpath-labs/skillpath-api/internal/middleware"
	"github.com/skillpath-labs/skillpath-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}
