package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dentorhub/dentorhub-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func TestInternalAPIAuthMiddleware_ValidToken(t *testing.T) {
	router := gin.New()
	validToken := "internal-secret-token"

	handlerCalled := false
	router.Use(InternalAPIAuthMiddleware(validToken))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("x-internal-api-auth-token", validToken)

	router.ServeHTTP(w, req)

	assert.True(t, handlerCalled, "Handler should be called for valid internal token")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalAPIAuthMiddleware_InvalidToken(t *testing.T) {
	router := gin.New()
	validToken := "internal-secret-token"

	handlerCalled := false
	router.Use(InternalAPIAuthMiddleware(validToken))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", http.NoBody)
	req.Header.Set("x-internal-api-auth-token", "wrong-token")

	router.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "Handler should not be called for invalid internal token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInternalAPIAuthMiddleware_MissingToken(t *testing.T) {
	router := gin.New()
	validToken := "internal-secret-token"

	handlerCalled := false
	router.Use(InternalAPIAuthMiddleware(validToken))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", http.NoBody)

	router.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "Handler should not be called when internal token is missing")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
