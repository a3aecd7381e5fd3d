package controllers

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/scrapmate/scrapmate-api/middleware"
	"github.com/scrapmate/scrapmate-api/models"
	"github.com/scrapmate/scrapmate-api/services"
)

// PickupController exposes the pickup lifecycle and the role-specific views
type PickupController struct {
	engine   *services.PickupEngine
	views    *services.PickupViews
	store    *services.PickupStore
	images   services.ImageService
	validate *validatorv10.Validate
}

// NewPickupController creates a pickup controller. The validator instance
// carries a struct-level rule checking that the submitted total matches the
// item subtotals, so malformed payloads are rejected at the edge before the
// engine re-checks the same invariant.
func NewPickupController(engine *services.PickupEngine, views *services.PickupViews, store *services.PickupStore, images services.ImageService) *PickupController {
	v := validatorv10.New()
	v.RegisterStructValidation(submitItemsStructValidation, SubmitItemsRequest{})

	return &PickupController{
		engine:   engine,
		views:    views,
		store:    store,
		images:   images,
		validate: v,
	}
}

// CreatePickupRequest represents the request body for scheduling a pickup
type CreatePickupRequest struct {
	Address    string  `json:"address" binding:"required"`
	MapLink    *string `json:"map_link" binding:"omitempty"`
	PickupDate string  `json:"pickup_date" binding:"required"`
	TimeSlot   string  `json:"time_slot" binding:"required"`
}

// StartPickupRequest represents the request body for starting a pickup
type StartPickupRequest struct {
	Code string `json:"code" binding:"required"`
}

// SubmitItemRequest is one collected line in a submit-items payload
type SubmitItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// SubmitItemsRequest represents the request body for submitting collected items
type SubmitItemsRequest struct {
	Items       []SubmitItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount float64             `json:"total_amount" validate:"gte=0"`
}

// submitItemsStructValidation verifies the aggregated total of items equals
// TotalAmount (compared in cents)
func submitItemsStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(SubmitItemsRequest)

	var sum float64
	for _, it := range req.Items {
		sum += float64(it.Quantity) * it.Price
	}

	if math.Round(sum*100) != math.Round(req.TotalAmount*100) {
		sl.ReportError(req.TotalAmount, "total_amount", "TotalAmount", "amount_match_items",
			fmt.Sprintf("items sum %.2f != total %.2f", sum, req.TotalAmount))
	}
}

// CreatePickup handles POST /api/v1/pickups - schedules a pickup (customers only)
func (pc *PickupController) CreatePickup(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req CreatePickupRequest
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

	pickup, err := pc.engine.Create(user, services.CreatePickupInput{
		Address:    req.Address,
		MapLink:    req.MapLink,
		PickupDate: req.PickupDate,
		TimeSlot:   req.TimeSlot,
	})
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// ListPickups handles GET /api/v1/pickups - returns the role-appropriate view.
// Customers see their own pickups (?recent=true limits to the newest few);
// partners see pending pickups plus their assigned ones.
func (pc *PickupController) ListPickups(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var pickups []models.PickupRequest
	switch user.Role {
	case models.RoleCustomer:
		if c.Query("recent") == "true" {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultRecentLimit)))
			pickups, err = pc.views.RecentForCustomer(user.ID, limit)
		} else {
			pickups, err = pc.views.ForCustomer(user.ID)
		}
	case models.RolePartner:
		pickups, err = pc.views.ForPartner(user.ID)
	default:
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Unknown role",
			},
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list pickups",
			},
		})
		return
	}

	for i := range pickups {
		pc.attachWeighSlipURL(&pickups[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickups,
	})
}

// GetPickup handles GET /api/v1/pickups/:id - returns one pickup the caller
// is a party to (or may still claim)
func (pc *PickupController) GetPickup(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	pickupID, ok := pc.pickupIDParam(c)
	if !ok {
		return
	}

	pickup, err := pc.store.Get(pickupID)
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	// Customers see their own pickups; partners see unclaimed ones and
	// those assigned to them.
	canView := false
	switch user.Role {
	case models.RoleCustomer:
		canView = pickup.CustomerID == user.ID
	case models.RolePartner:
		canView = pickup.Status == models.StatusPending ||
			(pickup.PartnerID != nil && *pickup.PartnerID == user.ID)
	}
	if !canView {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this pickup",
			},
		})
		return
	}

	pc.attachWeighSlipURL(pickup)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// AcceptPickup handles POST /api/v1/pickups/:id/accept - claims a pending
// pickup for the acting partner
func (pc *PickupController) AcceptPickup(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	pickupID, ok := pc.pickupIDParam(c)
	if !ok {
		return
	}

	pickup, err := pc.engine.Accept(user, pickupID)
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// StartPickup handles POST /api/v1/pickups/:id/start - starts collection
// after verifying the pickup code
func (pc *PickupController) StartPickup(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	pickupID, ok := pc.pickupIDParam(c)
	if !ok {
		return
	}

	var req StartPickupRequest
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

	pickup, err := pc.engine.Start(user, pickupID, req.Code)
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// SubmitItems handles POST /api/v1/pickups/:id/items - records the collected
// items and the total amount
func (pc *PickupController) SubmitItems(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	pickupID, ok := pc.pickupIDParam(c)
	if !ok {
		return
	}

	var req SubmitItemsRequest
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
	if err := pc.validate.Struct(req); err != nil {
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

	items := make([]services.SubmitItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.SubmitItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	pickup, err := pc.engine.SubmitItems(user, pickupID, items, req.TotalAmount)
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// ApprovePickup handles POST /api/v1/pickups/:id/approve - the customer
// signs off and the pickup completes
func (pc *PickupController) ApprovePickup(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	pickupID, ok := pc.pickupIDParam(c)
	if !ok {
		return
	}

	pickup, err := pc.engine.Approve(user, pickupID)
	if err != nil {
		pc.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// Dashboard handles GET /api/v1/dashboard - partner counters (partners only)
func (pc *PickupController) Dashboard(c *gin.Context) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	if !user.IsPartner() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only partners have a dashboard",
			},
		})
		return
	}

	counters, err := pc.views.Counters(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to compute dashboard counters",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    counters,
	})
}

// pickupIDFromParam parses the :id path parameter
func pickupIDFromParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pickupIDParam parses the :id path parameter, writing a 400 on failure
func (pc *PickupController) pickupIDParam(c *gin.Context) (uint, bool) {
	id, err := pickupIDFromParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Pickup ID must be a number",
			},
		})
		return 0, false
	}
	return id, true
}

// attachWeighSlipURL fills the computed WeighSlipURL field from storage
func (pc *PickupController) attachWeighSlipURL(pickup *models.PickupRequest) {
	if pickup.WeighSlipS3Key == nil || pc.images == nil {
		return
	}
	url, err := pc.images.GetImageURL(*pickup.WeighSlipS3Key)
	if err != nil {
		log.Printf("warning: failed to build weigh slip URL for pickup %d: %v", pickup.ID, err)
		return
	}
	if url != "" {
		pickup.WeighSlipURL = &url
	}
}

// respondEngineError maps engine and store errors onto the API error envelope
func (pc *PickupController) respondEngineError(c *gin.Context, err error) {
	respondLifecycleError(c, err)
}

// respondLifecycleError writes the response for an engine or store error
func respondLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PICKUP_NOT_FOUND",
				"message": "Pickup not found",
			},
		})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrCodeMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CODE_MISMATCH",
				"message": "The entered pickup code is incorrect",
			},
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Operation failed",
			},
		})
	}
}
