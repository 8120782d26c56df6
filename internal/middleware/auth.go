package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalAuthHeader = "x-internal-api-auth-token"

// timingSafeCompare compares two tokens in constant time
func timingSafeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// InternalAPIAuthMiddleware validates the internal API token. Guards the
// operator-only reconciliation endpoints.
func InternalAPIAuthMiddleware(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(internalAuthHeader)

		if token == "" || !timingSafeCompare(token, validToken) {
			logger.Warn("Invalid internal API token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing internal API token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
