package testutil

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/models"
	"github.com/scrapmate/scrapmate-api/services"
)

// MintSession authenticates a user through the real auth service and returns
// the session, failing the test on any error.
func MintSession(t *testing.T, auth *services.AuthService, phone, name, role string) *models.Session {
	t.Helper()

	session, err := auth.Authenticate(phone, name, role, "123456")
	if err != nil {
		t.Fatalf("Failed to mint session for %s/%s: %v", phone, role, err)
	}
	return session
}

// SetMockAuthContext puts a user directly on the Gin context, bypassing the
// session middleware. Useful for handler-level tests.
func SetMockAuthContext(c *gin.Context, user *models.User, token string) {
	c.Set("current_user", user)
	c.Set("session_token", token)
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
