package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/repository"
)

type galleryImageResponse struct {
	ID         string    `json:"_id"`
	Src        string    `json:"src"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	FileID     string    `json:"fileId"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func newGalleryImageResponse(img models.GalleryImage) galleryImageResponse {
	return galleryImageResponse{
		ID:         img.ID,
		Src:        img.Image.URL,
		Category:   img.Category,
		Title:      img.Title,
		FileID:     img.Image.BlobID,
		UploadedAt: img.CreatedAt,
	}
}

func (h HandlerSet) CreateGalleryImage(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		bindError(c, err)
		return
	}

	headers := form.File["image"]
	if len(headers) > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one image per gallery upload"})
		return
	}

	var file *media.File
	if len(headers) == 1 {
		files, err := readMultipartFiles(headers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		file = &files[0]
	}

	img, err := h.gallery.Create(c.Request.Context(), c.PostForm("category"), c.PostForm("title"), file)
	if err != nil {
		h.fail(c, err, "create gallery image failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully",
		"image":   newGalleryImageResponse(img),
	})
}

func (h HandlerSet) ListGalleryImages(c *gin.Context) {
	images, err := h.gallery.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list gallery images failed")
		return
	}

	items := make([]galleryImageResponse, 0, len(images))
	for _, img := range images {
		items = append(items, newGalleryImageResponse(img))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Gallery images fetched successfully",
		"success":       true,
		"galleryImages": items,
	})
}

func (h HandlerSet) GetGalleryImage(c *gin.Context) {
	img, err := h.gallery.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		h.fail(c, err, "get gallery image failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Image fetched successfully",
		"success": true,
		"image":   newGalleryImageResponse(img),
	})
}

func (h HandlerSet) DeleteGalleryImage(c *gin.Context) {
	img, err := h.gallery.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		h.fail(c, err, "delete gallery image failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Image deleted successfully",
		"success":      true,
		"deletedImage": newGalleryImageResponse(img),
	})
}
