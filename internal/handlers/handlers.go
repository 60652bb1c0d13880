package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Kamal-Wagle/recondition/internal/config"
	"github.com/Kamal-Wagle/recondition/internal/middleware"
	"github.com/Kamal-Wagle/recondition/internal/service"
	"github.com/Kamal-Wagle/recondition/internal/storage"
)

// FileSource streams stored blobs behind signed links.
type FileSource interface {
	Open(ctx context.Context, blobID string) (io.ReadCloser, storage.ObjectInfo, error)
	VerifyLink(blobID, sig string) bool
}

// HealthCheck is one dependency probed by the health endpoint.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Dependencies struct {
	Bikes        *service.BikeService
	Albums       *service.AlbumService
	Gallery      *service.GalleryService
	Auth         *service.AuthService
	Files        FileSource
	Checks       []HealthCheck
	Authenticate gin.HandlerFunc
	Limiter      middleware.Limiter
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	bikes        *service.BikeService
	albums       *service.AlbumService
	gallery      *service.GalleryService
	auth         *service.AuthService
	files        FileSource
	checks       []HealthCheck
	authenticate gin.HandlerFunc
	limiter      middleware.Limiter
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	registerFieldNames()

	return HandlerSet{
		log:          log,
		cfg:          cfg,
		bikes:        deps.Bikes,
		albums:       deps.Albums,
		gallery:      deps.Gallery,
		auth:         deps.Auth,
		files:        deps.Files,
		checks:       deps.Checks,
		authenticate: deps.Authenticate,
		limiter:      deps.Limiter,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := v1.Group("/auth")
		protected.Use(h.authenticate)
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	bikes := v1.Group("/bikes")
	bikes.GET("", h.ListBikes)
	bikes.GET("/:id", h.GetBike)
	bikes.POST("", h.admin("bikes.create", h.CreateBike)...)
	bikes.PUT("/:id", append([]gin.HandlerFunc{rejectMultipart}, h.admin("bikes.update", h.UpdateBike)...)...)
	bikes.DELETE("/:id", h.admin("bikes.delete", h.DeleteBike)...)

	albums := v1.Group("/albums")
	albums.GET("", h.ListAlbums)
	albums.GET("/:id", h.GetAlbum)
	albums.POST("", h.admin("albums.create", h.CreateAlbum)...)
	albums.DELETE("/:id", h.admin("albums.delete", h.DeleteAlbum)...)

	gallery := v1.Group("/gallery")
	gallery.GET("", h.ListGalleryImages)
	gallery.GET("/:id", h.GetGalleryImage)
	gallery.POST("", h.admin("gallery.create", h.CreateGalleryImage)...)
	gallery.DELETE("/:id", h.admin("gallery.delete", h.DeleteGalleryImage)...)

	files := engine.Group("/files")
	files.GET("/view", h.ViewFile)
	files.GET("/preview", h.PreviewFile)
}

// admin guards a mutating route. The principal is resolved before the body
// is read so unauthorized callers never trigger an upload.
func (h HandlerSet) admin(action string, handler gin.HandlerFunc) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		h.authenticate,
		middleware.RequireAdmin(),
		middleware.RateLimit(h.limiter, action, h.log),
		h.limitBody,
		handler,
	}
}

func (h HandlerSet) limitBody(c *gin.Context) {
	if h.cfg != nil && h.cfg.HTTP.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.HTTP.MaxUploadBytes)
	}
	c.Next()
}
