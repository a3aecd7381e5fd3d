package services

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scrapmate/scrapmate-api/utils"
	"github.com/stretchr/testify/assert"
)

// makeFileHeader builds a multipart.FileHeader the way Gin would hand one to
// a controller, by round-tripping the content through a multipart request.
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("Failed to parse multipart form: %v", err)
	}
	return req.MultipartForm.File["photo"][0]
}

func TestS3ImageServiceUpload(t *testing.T) {
	mock := NewMockS3Service()
	images := NewS3ImageService(mock)

	fileHeader := makeFileHeader(t, "slip.jpg", []byte("fake jpeg data"))

	key, err := images.UploadImage(fileHeader)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "weigh-slips/"))
	assert.True(t, mock.FileExists(key))

	url, err := images.GetImageURL(key)
	assert.NoError(t, err)
	assert.Contains(t, url, key)

	assert.NoError(t, images.DeleteImage(key))
	assert.False(t, mock.FileExists(key))
}

func TestS3ImageServiceRejectsBadFiles(t *testing.T) {
	mock := NewMockS3Service()
	images := NewS3ImageService(mock)

	// Wrong extension
	_, err := images.UploadImage(makeFileHeader(t, "notes.txt", []byte("not an image")))
	assert.Error(t, err)
	var uploadErr *utils.FileUploadError
	assert.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "INVALID_FILE_FORMAT", uploadErr.Code)

	// Nothing reached storage
	assert.False(t, mock.FileExists("weigh-slips/mock_notes.txt"))
}

func TestLocalImageService(t *testing.T) {
	dir := t.TempDir()
	images := NewLocalImageService(dir, "/api/v1/uploads")

	key, err := images.UploadImage(makeFileHeader(t, "slip.png", []byte("fake png data")))
	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_slip.png"), "stored name keeps the original filename")

	// File exists on disk with the uploaded content
	content, err := os.ReadFile(filepath.Join(dir, key))
	assert.NoError(t, err)
	assert.Equal(t, []byte("fake png data"), content)

	url, err := images.GetImageURL(key)
	assert.NoError(t, err)
	assert.Equal(t, "/api/v1/uploads/"+key, url)

	assert.NoError(t, images.DeleteImage(key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is harmless
	assert.NoError(t, images.DeleteImage(key))
}

func TestLocalImageServiceUniqueNames(t *testing.T) {
	dir := t.TempDir()
	images := NewLocalImageService(dir, "/api/v1/uploads")

	first, err := images.UploadImage(makeFileHeader(t, "slip.jpg", []byte("one")))
	assert.NoError(t, err)
	second, err := images.UploadImage(makeFileHeader(t, "slip.jpg", []byte("two")))
	assert.NoError(t, err)

	assert.NotEqual(t, first, second, "same filename uploaded twice must not collide")
}
