package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/models"
	"github.com/scrapmate/scrapmate-api/services"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *services.AuthService) {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	auth := services.NewAuthService(db, "123456")
	controller := NewAuthController(auth)

	router := gin.New()
	router.POST("/api/v1/auth/login", controller.Login)
	router.GET("/api/v1/auth/me", mockAuthFromService(auth), controller.Me)
	router.POST("/api/v1/auth/logout", mockAuthFromService(auth), controller.Logout)

	return router, auth
}

// mockAuthFromService resolves the bearer token through the auth service the
// same way the real middleware does, without importing it.
func mockAuthFromService(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if len(token) > 7 {
			token = token[7:] // strip "Bearer "
		}
		user, _ := auth.Current(token)
		if user != nil {
			c.Set("current_user", user)
			c.Set("session_token", token)
		}
		c.Next()
	}
}

func performLogin(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "customer login",
			body: map[string]interface{}{
				"phone": "5550100",
				"code":  "123456",
				"role":  "customer",
				"name":  "Asha",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "partner login without name",
			body: map[string]interface{}{
				"phone": "5550101",
				"code":  "123456",
				"role":  "partner",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "wrong code",
			body: map[string]interface{}{
				"phone": "5550102",
				"code":  "654321",
				"role":  "customer",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "INVALID_CODE",
		},
		{
			name: "missing phone",
			body: map[string]interface{}{
				"code": "123456",
				"role": "customer",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "role outside the two known roles",
			body: map[string]interface{}{
				"phone": "5550103",
				"code":  "123456",
				"role":  "admin",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupAuthControllerTest(t)
			w := performLogin(t, router, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

			if tt.expectedStatus == http.StatusOK {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["token"])
				user := data["user"].(map[string]interface{})
				assert.Equal(t, tt.body["phone"], user["phone"])
				assert.Equal(t, tt.body["role"], user["role"])
			} else {
				assert.False(t, response["success"].(bool))
				errObj := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errObj["code"])
			}
		})
	}
}

func TestMe(t *testing.T) {
	router, auth := setupAuthControllerTest(t)

	session, err := auth.Authenticate("5550100", "Asha", models.RoleCustomer, "123456")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	user := response["data"].(map[string]interface{})
	assert.Equal(t, "Asha", user["name"])
	assert.Equal(t, "customer", user["role"])
}

func TestMeWithoutSession(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	router, auth := setupAuthControllerTest(t)

	session, err := auth.Authenticate("5550100", "", models.RolePartner, "123456")
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// The session is gone afterwards
	user, err := auth.Current(session.Token)
	assert.NoError(t, err)
	assert.Nil(t, user)
}
