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

type albumResponse struct {
	ID          string    `json:"_id"`
	AlbumName   string    `json:"albumName"`
	Description string    `json:"description"`
	ImagesURL   []string  `json:"imagesUrl"`
	FileID      string    `json:"fileId"`
	FileIDs     []string  `json:"fileIds"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newAlbumResponse(a models.Album) albumResponse {
	return albumResponse{
		ID:          a.ID,
		AlbumName:   a.AlbumName,
		Description: a.Description,
		ImagesURL:   a.Images.URLs(),
		FileID:      a.Images.First().BlobID,
		FileIDs:     a.Images.BlobIDs(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (h HandlerSet) CreateAlbum(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		bindError(c, err)
		return
	}

	var files []media.File
	if headers := form.File["images"]; len(headers) > 0 {
		files, err = readMultipartFiles(headers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	album, err := h.albums.Create(c.Request.Context(), c.PostForm("albumName"), c.PostForm("description"), files)
	if err != nil {
		h.fail(c, err, "create album failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Album created successfully",
		"album":   newAlbumResponse(album),
	})
}

func (h HandlerSet) ListAlbums(c *gin.Context) {
	albums, err := h.albums.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list albums failed")
		return
	}

	items := make([]albumResponse, 0, len(albums))
	for _, album := range albums {
		items = append(items, newAlbumResponse(album))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Albums fetched successfully",
		"success": true,
		"albums":  items,
	})
}

func (h HandlerSet) GetAlbum(c *gin.Context) {
	album, err := h.albums.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		h.fail(c, err, "get album failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Album fetched successfully",
		"success": true,
		"album":   newAlbumResponse(album),
	})
}

func (h HandlerSet) DeleteAlbum(c *gin.Context) {
	album, err := h.albums.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Album not found"})
			return
		}
		h.fail(c, err, "delete album failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Album deleted successfully",
		"success":      true,
		"deletedAlbum": newAlbumResponse(album),
	})
}
