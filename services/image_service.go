package services

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/scrapmate/scrapmate-api/utils"
)

// ImageService stores weigh-slip photos and hands out URLs for them. The S3
// implementation is used when a bucket is configured; the local one keeps
// photos on disk next to the database for single-device deployments.
type ImageService interface {
	// UploadImage validates and uploads an image file, returns the storage key
	UploadImage(fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(imageKey string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// NewS3ImageService creates an image service backed by S3.
func NewS3ImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	return s.s3Service.UploadFile(fileHeader)
}

// GetImageURL returns a presigned URL for the stored image
func (s *S3ImageService) GetImageURL(imageKey string) (string, error) {
	return s.s3Service.GetPresignedURL(imageKey)
}

// DeleteImage removes the image from S3
func (s *S3ImageService) DeleteImage(imageKey string) error {
	return s.s3Service.DeleteFile(imageKey)
}

// LocalImageService implements ImageService on the local filesystem. Keys
// are bare filenames under the upload directory, served back through the
// uploads endpoint.
type LocalImageService struct {
	uploadDir string
	baseURL   string
}

// NewLocalImageService creates an image service storing files under
// uploadDir and building URLs off baseURL (e.g. "/api/v1/uploads").
func NewLocalImageService(uploadDir, baseURL string) *LocalImageService {
	return &LocalImageService{
		uploadDir: uploadDir,
		baseURL:   baseURL,
	}
}

// UploadImage validates the file and writes it to the upload directory
func (s *LocalImageService) UploadImage(fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	return utils.SaveUploadedFile(fileHeader, s.uploadDir)
}

// GetImageURL returns the serving path for a stored file
func (s *LocalImageService) GetImageURL(imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}
	return fmt.Sprintf("%s/%s", s.baseURL, imageKey), nil
}

// DeleteImage removes the file from the upload directory
func (s *LocalImageService) DeleteImage(imageKey string) error {
	if imageKey == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.uploadDir, filepath.Base(imageKey))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
