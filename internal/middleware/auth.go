package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vetscan/internal/domain"
	"vetscan/internal/service"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyAuthType = "auth_type"
	ContextKeyScopes   = "scopes"
)

// AuthMiddleware returns Gin middleware that authenticates requests either by
// X-API-Key header or by Bearer JWT, and injects the caller identity.
// API keys are checked first so automated clients never pay JWT parse cost.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
			authCtx, err := authService.ValidateAPIKey(apiKey)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid API key"},
				})
				return
			}
			setAuthContext(c, authCtx)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		authCtx, err := authService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}
		setAuthContext(c, authCtx)
		c.Next()
	}
}

func setAuthContext(c *gin.Context, authCtx *service.AuthContext) {
	c.Set(ContextKeyUserID, authCtx.UserID)
	c.Set(ContextKeyAuthType, authCtx.AuthType)
	c.Set(ContextKeyScopes, authCtx.Scopes)
}

// RequireScope returns middleware that checks the caller holds the scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(ContextKeyScopes)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "scopes not found in context"},
			})
			return
		}

		for _, s := range val.([]string) {
			if s == scope {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "insufficient scope"},
		})
	}
}

// GetUserID extracts the authenticated caller's ID from the Gin context.
func GetUserID(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	return val.(string), nil
}

// GetAuthType extracts the authentication method used for this request.
func GetAuthType(c *gin.Context) string {
	val, exists := c.Get(ContextKeyAuthType)
	if !exists {
		return ""
	}
	return val.(string)
}
