package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/middleware"
	"github.com/scrapmate/scrapmate-api/services"
)

// AuthController exposes login, session introspection and logout
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates an auth controller using the given auth service
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
	Role  string `json:"role" binding:"required,oneof=customer partner"`
	Name  string `json:"name" binding:"omitempty"`
}

// Login handles POST /api/v1/auth/login - verifies the code and mints a session
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
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

	session, err := ac.auth.Authenticate(req.Phone, req.Name, req.Role, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CODE",
					"message": "The verification code is incorrect",
				},
			})
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create session",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": session.Token,
			"user":  session.User,
		},
	})
}

// Me handles GET /api/v1/auth/me - returns the authenticated user
func (ac *AuthController) Me(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// Logout handles POST /api/v1/auth/logout - ends the current session.
// Logging out twice is harmless.
func (ac *AuthController) Logout(c *gin.Context) {
	token, err := middleware.GetSessionToken(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract session token",
			},
		})
		return
	}

	if err := ac.auth.EndSession(token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to end session",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Session ended",
	})
}
