package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
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

type messageControllerFixture struct {
	router *gin.Engine
	db     *gorm.DB
	engine *services.PickupEngine
	acting *actingUser
}

func setupMessageControllerTest(t *testing.T) *messageControllerFixture {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.PickupRequest{}, &models.PickupItem{}, &models.Message{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	store := services.NewPickupStore(db)
	engine := services.NewPickupEngine(store)
	controller := NewMessageController(db, store)

	acting := &actingUser{}
	router := gin.New()
	authed := router.Group("/api/v1", acting.middleware())
	authed.POST("/pickups/:id/messages", controller.SendMessage)
	authed.GET("/pickups/:id/messages", controller.ListMessages)

	return &messageControllerFixture{router: router, db: db, engine: engine, acting: acting}
}

func (f *messageControllerFixture) createUser(t *testing.T, phone, name, role string) *models.User {
	t.Helper()
	user := models.User{Phone: phone, Name: name, Role: role}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return &user
}

func (f *messageControllerFixture) send(t *testing.T, as *models.User, pickupID uint, text string) *httptest.ResponseRecorder {
	t.Helper()
	f.acting.user = as
	payload, _ := json.Marshal(map[string]string{"text": text})
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/pickups/%d/messages", pickupID), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *messageControllerFixture) list(t *testing.T, as *models.User, pickupID uint) *httptest.ResponseRecorder {
	t.Helper()
	f.acting.user = as
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pickups/%d/messages", pickupID), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSendAndListMessages(t *testing.T) {
	f := setupMessageControllerTest(t)
	customer := f.createUser(t, "5550100", "Asha", models.RoleCustomer)
	partner := f.createUser(t, "5550200", "Ravi", models.RolePartner)

	pickup, err := f.engine.Create(customer, services.CreatePickupInput{
		Address: "123 Main St", PickupDate: "2025-06-01", TimeSlot: "9:00 AM - 10:00 AM",
	})
	assert.NoError(t, err)
	_, err = f.engine.Accept(partner, pickup.ID)
	assert.NoError(t, err)

	w := f.send(t, customer, pickup.ID, "Please ring the doorbell")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.send(t, partner, pickup.ID, "On my way")
	assert.Equal(t, http.StatusCreated, w.Code)
	created := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "On my way", created["text"])
	sender := created["sender"].(map[string]interface{})
	assert.Equal(t, "Ravi", sender["name"])

	// Oldest first, with senders preloaded
	w = f.list(t, customer, pickup.ID)
	assert.Equal(t, http.StatusOK, w.Code)
	messages := decodeEnvelope(t, w)["data"].([]interface{})
	assert.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "Please ring the doorbell", first["text"])
}

func TestMessageAuthorization(t *testing.T) {
	f := setupMessageControllerTest(t)
	customer := f.createUser(t, "5550100", "Asha", models.RoleCustomer)
	stranger := f.createUser(t, "5550101", "Meera", models.RoleCustomer)
	partner := f.createUser(t, "5550200", "Ravi", models.RolePartner)
	rival := f.createUser(t, "5550201", "Vik", models.RolePartner)

	pickup, err := f.engine.Create(customer, services.CreatePickupInput{
		Address: "123 Main St", PickupDate: "2025-06-01", TimeSlot: "9:00 AM - 10:00 AM",
	})
	assert.NoError(t, err)

	// A partner who has not accepted cannot message yet
	w := f.send(t, partner, pickup.ID, "hello")
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err = f.engine.Accept(partner, pickup.ID)
	assert.NoError(t, err)

	// Assigned partner and owning customer can; everyone else cannot
	assert.Equal(t, http.StatusCreated, f.send(t, partner, pickup.ID, "hello").Code)
	assert.Equal(t, http.StatusCreated, f.send(t, customer, pickup.ID, "hi").Code)
	assert.Equal(t, http.StatusForbidden, f.send(t, stranger, pickup.ID, "who dis").Code)
	assert.Equal(t, http.StatusForbidden, f.send(t, rival, pickup.ID, "let me in").Code)
	assert.Equal(t, http.StatusForbidden, f.list(t, rival, pickup.ID).Code)

	// Unknown pickup
	w = f.send(t, customer, 9999, "hello")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PICKUP_NOT_FOUND", errorCode(t, w))
}

func TestSendMessageValidation(t *testing.T) {
	f := setupMessageControllerTest(t)
	customer := f.createUser(t, "5550100", "Asha", models.RoleCustomer)

	pickup, err := f.engine.Create(customer, services.CreatePickupInput{
		Address: "123 Main St", PickupDate: "2025-06-01", TimeSlot: "9:00 AM - 10:00 AM",
	})
	assert.NoError(t, err)

	// Empty text is rejected
	w := f.send(t, customer, pickup.ID, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}
