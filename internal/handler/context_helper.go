package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/samvidha-portal-api/internal/middleware"
	"github.com/noah-isme/samvidha-portal-api/internal/models"
)

func credentialsFromContext(c *gin.Context) (models.Credentials, bool) {
	value, exists := c.Get(middleware.ContextCredentialsKey)
	if !exists {
		return models.Credentials{}, false
	}
	creds, ok := value.(models.Credentials)
	return creds, ok
}
