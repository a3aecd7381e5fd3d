package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scrapmate/scrapmate-api/middleware"
	"github.com/scrapmate/scrapmate-api/services"
	"github.com/scrapmate/scrapmate-api/utils"
)

// UploadController handles weigh-slip photo uploads and, for local storage,
// serving the stored files back
type UploadController struct {
	engine *services.PickupEngine
	images services.ImageService
}

// NewUploadController creates an upload controller
func NewUploadController(engine *services.PickupEngine, images services.ImageService) *UploadController {
	return &UploadController{engine: engine, images: images}
}

// UploadWeighSlip handles POST /api/v1/pickups/:id/weigh-slip - the assigned
// partner attaches a photo of the weighing receipt
func (uc *UploadController) UploadWeighSlip(c *gin.Context) {
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

	pickupID, err := pickupIDFromParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Pickup ID must be a number",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	key, err := uc.images.UploadImage(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the photo",
			},
		})
		return
	}

	pickup, replaced, err := uc.engine.AttachWeighSlip(user, pickupID, key)
	if err != nil {
		// The photo was stored but the pickup rejected it; don't leave the
		// orphan behind.
		if delErr := uc.images.DeleteImage(key); delErr != nil {
			log.Printf("warning: failed to delete orphaned weigh slip %s: %v", key, delErr)
		}
		respondLifecycleError(c, err)
		return
	}

	if replaced != nil {
		if delErr := uc.images.DeleteImage(*replaced); delErr != nil {
			log.Printf("warning: failed to delete replaced weigh slip %s: %v", *replaced, delErr)
		}
	}

	if url, urlErr := uc.images.GetImageURL(key); urlErr == nil && url != "" {
		pickup.WeighSlipURL = &url
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    pickup,
	})
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves locally
// stored weigh-slip photos (only used when no S3 bucket is configured)
func (uc *UploadController) GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Filename is required",
			},
		})
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid filename",
			},
		})
		return
	}

	// Validate file extension
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, format := range utils.AllowedImageFormats {
		if ext == format {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Unsupported file type",
			},
		})
		return
	}

	// Construct full file path
	filePath := filepath.Join(utils.UploadDir, filename)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	contentType := "image/jpeg"
	if ext == ".png" {
		contentType = "image/png"
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}
