package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/repository"
)

const invalidBikeExtras = "Invalid features/specifications/images"

// bikeFields lists the required text fields of a listing. Declaration order
// decides which missing field is reported first.
type bikeFields struct {
	Name         string `form:"name" json:"name" binding:"required"`
	Price        string `form:"price" json:"price" binding:"required"`
	Year         string `form:"year" json:"year" binding:"required"`
	Mileage      string `form:"mileage" json:"mileage" binding:"required"`
	Condition    string `form:"condition" json:"condition" binding:"required"`
	Type         string `form:"type" json:"type" binding:"required"`
	Brand        string `form:"brand" json:"brand" binding:"required"`
	Engine       string `form:"engine" json:"engine" binding:"required"`
	FuelType     string `form:"fuelType" json:"fuelType" binding:"required"`
	Transmission string `form:"transmission" json:"transmission" binding:"required"`
	Color        string `form:"color" json:"color" binding:"required"`
	Owners       string `form:"owners" json:"owners" binding:"required"`
	Insurance    string `form:"insurance" json:"insurance" binding:"required"`
	Registration string `form:"registration" json:"registration" binding:"required"`
	Description  string `form:"description" json:"description" binding:"required"`
}

func (f bikeFields) details(features []string, specs map[string]any) models.BikeDetails {
	return models.BikeDetails{
		Name:           f.Name,
		Price:          f.Price,
		Year:           f.Year,
		Mileage:        f.Mileage,
		Condition:      f.Condition,
		Type:           f.Type,
		Brand:          f.Brand,
		Engine:         f.Engine,
		FuelType:       f.FuelType,
		Transmission:   f.Transmission,
		Color:          f.Color,
		Owners:         f.Owners,
		Insurance:      f.Insurance,
		Registration:   f.Registration,
		Description:    f.Description,
		Features:       features,
		Specifications: specs,
	}
}

type createBikeForm struct {
	bikeFields
	Features       string `form:"features"`
	Specifications string `form:"specifications"`
}

type filePayload struct {
	Name     string `json:"name" binding:"required"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content" binding:"required"`
}

type updateBikeRequest struct {
	bikeFields
	Features       []string       `json:"features"`
	Specifications map[string]any `json:"specifications"`
	Files          []filePayload  `json:"files" binding:"omitempty,dive"`
}

type bikeResponse struct {
	ID string `json:"_id"`
	bikeFields
	Features       []string       `json:"features"`
	Specifications map[string]any `json:"specifications"`
	Images         []string       `json:"images"`
	FileID         []string       `json:"fileId"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func newBikeResponse(b models.Bike) bikeResponse {
	return bikeResponse{
		ID: b.ID,
		bikeFields: bikeFields{
			Name:         b.Name,
			Price:        b.Price,
			Year:         b.Year,
			Mileage:      b.Mileage,
			Condition:    b.Condition,
			Type:         b.Type,
			Brand:        b.Brand,
			Engine:       b.Engine,
			FuelType:     b.FuelType,
			Transmission: b.Transmission,
			Color:        b.Color,
			Owners:       b.Owners,
			Insurance:    b.Insurance,
			Registration: b.Registration,
			Description:  b.Description,
		},
		Features:       b.Features,
		Specifications: b.Specifications,
		Images:         b.Images.URLs(),
		FileID:         b.Images.BlobIDs(),
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func (h HandlerSet) CreateBike(c *gin.Context) {
	var form createBikeForm
	if err := c.ShouldBindWith(&form, binding.FormMultipart); err != nil {
		bindError(c, err)
		return
	}

	var features []string
	var specs map[string]any
	if json.Unmarshal([]byte(form.Features), &features) != nil || features == nil ||
		json.Unmarshal([]byte(form.Specifications), &specs) != nil || specs == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBikeExtras})
		return
	}

	multipartForm, err := c.MultipartForm()
	if err != nil || len(multipartForm.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidBikeExtras})
		return
	}

	files, err := readMultipartFiles(multipartForm.File["images"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bike, err := h.bikes.Create(c.Request.Context(), form.details(features, specs), files)
	if err != nil {
		h.fail(c, err, "create bike failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bike uploaded",
		"bike":    newBikeResponse(bike),
	})
}

func (h HandlerSet) ListBikes(c *gin.Context) {
	bikes, err := h.bikes.List(c.Request.Context())
	if err != nil {
		h.fail(c, err, "list bikes failed")
		return
	}

	items := make([]bikeResponse, 0, len(bikes))
	for _, bike := range bikes {
		items = append(items, newBikeResponse(bike))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bikes fetched successfully",
		"success": true,
		"bikes":   items,
	})
}

func (h HandlerSet) GetBike(c *gin.Context) {
	bike, err := h.bikes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bike not found"})
			return
		}
		h.fail(c, err, "get bike failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bike fetched successfully",
		"success": true,
		"bike":    newBikeResponse(bike),
	})
}

// rejectMultipart runs ahead of authentication; it only inspects the header.
func rejectMultipart(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "multipart/form-data not supported"})
		return
	}
	c.Next()
}

// UpdateBike replaces every field of a listing. Photos are replaced only when
// the body carries base64 files.
func (h HandlerSet) UpdateBike(c *gin.Context) {
	var req updateBikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	sources := make([]media.Base64Encoded, 0, len(req.Files))
	for _, f := range req.Files {
		sources = append(sources, media.Base64Encoded{Name: f.Name, MimeType: f.MimeType, Content: f.Content})
	}
	files, err := media.NormalizeAll(sources)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bike, err := h.bikes.Update(c.Request.Context(), c.Param("id"), req.details(req.Features, req.Specifications), files)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bike not found"})
			return
		}
		h.fail(c, err, "update bike failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Bike updated successfully",
		"success":     true,
		"updatedBike": newBikeResponse(bike),
	})
}

func (h HandlerSet) DeleteBike(c *gin.Context) {
	bike, err := h.bikes.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bike not found"})
			return
		}
		h.fail(c, err, "delete bike failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Bike deleted successfully",
		"success":     true,
		"deletedBike": newBikeResponse(bike),
	})
}
