package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/samvidha-portal-api/internal/service"
	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
	"github.com/noah-isme/samvidha-portal-api/pkg/response"
)

// ContextCredentialsKey is the gin context key storing the resolved portal
// credentials.
const ContextCredentialsKey = "portalCredentials"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "portal_session"

// Session protects routes by requiring a valid session token, taken from
// the session cookie or a bearer Authorization header.
func Session(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			response.Error(c, appErrors.ErrSessionExpired)
			c.Abort()
			return
		}

		creds, err := authService.ResolveToken(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextCredentialsKey, creds)
		c.Next()
	}
}

// TokenFromRequest extracts the session token. The cookie wins; the bearer
// header exists for JSON clients.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
