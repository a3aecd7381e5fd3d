package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/middleware"
	"github.com/scrapmate/scrapmate-api/models"
	"github.com/scrapmate/scrapmate-api/services"
	"gorm.io/gorm"
)

// MessageController exposes the per-pickup conversation between the
// customer and the assigned partner
type MessageController struct {
	db    *gorm.DB
	store *services.PickupStore
}

// NewMessageController creates a message controller
func NewMessageController(db *gorm.DB, store *services.PickupStore) *MessageController {
	return &MessageController{db: db, store: store}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendMessage handles POST /api/v1/pickups/:id/messages - sends a message on a pickup
func (mc *MessageController) SendMessage(c *gin.Context) {
	user, pickup, ok := mc.authorizeConversation(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	message := models.Message{
		PickupID: pickup.ID,
		SenderID: user.ID,
		Text:     req.Text,
	}

	if err := mc.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create message",
			},
		})
		return
	}

	// Load the sender relationship to return complete data
	if err := mc.db.Preload("Sender").First(&message, message.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load message details",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/v1/pickups/:id/messages - lists a pickup's
// conversation oldest first
func (mc *MessageController) ListMessages(c *gin.Context) {
	_, pickup, ok := mc.authorizeConversation(c)
	if !ok {
		return
	}

	var messages []models.Message
	err := mc.db.Preload("Sender").
		Where("pickup_id = ?", pickup.ID).
		Order("created_at asc").
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// authorizeConversation loads the pickup and checks the caller is a party to
// it: the owning customer or the assigned partner. Writes the error response
// itself when the check fails.
func (mc *MessageController) authorizeConversation(c *gin.Context) (*models.User, *models.PickupRequest, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, nil, false
	}

	pickupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Pickup ID must be a number",
			},
		})
		return nil, nil, false
	}

	pickup, err := mc.store.Get(uint(pickupID))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PICKUP_NOT_FOUND",
					"message": "Pickup not found",
				},
			})
			return nil, nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load pickup",
			},
		})
		return nil, nil, false
	}

	// Customers can only message on their own pickups
	// Partners can only message on pickups assigned to them
	canMessage := false
	switch user.Role {
	case models.RoleCustomer:
		canMessage = pickup.CustomerID == user.ID
	case models.RolePartner:
		canMessage = pickup.PartnerID != nil && *pickup.PartnerID == user.ID
	}

	if !canMessage {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to message on this pickup",
			},
		})
		return nil, nil, false
	}

	return user, pickup, true
}
