package middleware

import (
	"net/http"

	"github.com/ashwood-health/scr-backend/internal/auth"
	"github.com/ashwood-health/scr-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuth
const (
	ContextKeyExternalUserID = "external_user_id"
	ContextKeyEmail          = "email"
)

// JWTAuth validates the identity-provider access token and injects the
// external user id into the request context
func JWTAuth(jwtManager *auth.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		token, err := auth.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyAccessToken(token)
		if err != nil {
			log.Warn("invalid access token",
				zap.Error(err),
				zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyExternalUserID, claims.Subject)
		c.Set(ContextKeyEmail, claims.Email)
		c.Request = c.Request.WithContext(
			logger.WithUserID(c.Request.Context(), claims.Subject))

		c.Next()
	}
}

// GetExternalUserID returns the identity-provider user id set by JWTAuth
func GetExternalUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyExternalUserID)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// WebhookAuth guards webhook endpoints with a shared secret header
func WebhookAuth(secret string, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-Webhook-Secret")
		if !auth.VerifyWebhookSecret(presented, secret) {
			log.Warn("webhook secret mismatch", zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORS handles cross-origin requests
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
