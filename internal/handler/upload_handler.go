package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/minhqngo/staymate/internal/model"
	"github.com/minhqngo/staymate/pkg/storage"
)

// Max upload size: 50MB
const maxUploadSize = 50 << 20

// Listing photos and avatars are the only uploads; images only
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	storage storage.Storage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(storage storage.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage godoc
// @Summary Upload an image
// @Description Upload a listing photo or avatar. Returns the public URL. Supports jpg, png, gif, webp.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image to upload"
// @Param folder formData string false "Target folder: listings or avatars" Enums(listings, avatars)
// @Success 200 {object} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if err.Error() == "http: request body too large" {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large (max 50MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Unsupported file type",
			Message: "Allowed: jpg, png, gif, webp",
		})
		return
	}

	folder := c.PostForm("folder")
	if folder != "avatars" {
		folder = "listings"
	}

	result, err := h.storage.Upload(c.Request.Context(), file, header, folder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to upload file", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		URL:      result.URL,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	})
}

// UploadMultiple godoc
// @Summary Upload multiple images
// @Description Upload up to 10 listing photos at once. Unsupported or failed files are skipped.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Images to upload (max 10)"
// @Success 200 {array} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid form data", Message: err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "No files provided"})
		return
	}

	if len(files) > model.MaxListingImages {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Maximum 10 files allowed"})
		return
	}

	results := []model.UploadResponse{}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			continue
		}

		contentType := strings.ToLower(header.Header.Get("Content-Type"))
		if !allowedImageTypes[contentType] {
			file.Close()
			continue
		}

		result, err := h.storage.Upload(c.Request.Context(), file, header, "listings")
		file.Close()
		if err != nil {
			continue
		}

		results = append(results, model.UploadResponse{
			URL:      result.URL,
			FileName: result.FileName,
			FileSize: result.FileSize,
			MimeType: result.MimeType,
		})
	}

	c.JSON(http.StatusOK, results)
}
