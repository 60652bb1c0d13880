package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Kamal-Wagle/recondition/internal/media"
	"github.com/Kamal-Wagle/recondition/internal/middleware"
	"github.com/Kamal-Wagle/recondition/internal/service"
)

var fieldNamesOnce sync.Once

// registerFieldNames makes validation errors report the wire name of a field
// (json tag, then form tag) instead of the Go struct field name.
func registerFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
}

// bindError answers a request whose body could not be bound.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &verrs) && len(verrs) > 0:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required field: " + verrs[0].Field()})
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
	case errors.Is(err, http.ErrNotMultipart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart/form-data required"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// fail maps a service error to a response. Not-found cases are answered by
// the caller since their message depends on the resource.
func (h HandlerSet) fail(c *gin.Context, err error, msg string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, media.ErrEmptyPayload), errors.Is(err, media.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
