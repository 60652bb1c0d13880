package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/Kamal-Wagle/recondition/internal/storage"
)

// ViewFile streams a blob as a download.
func (h HandlerSet) ViewFile(c *gin.Context) {
	h.serveFile(c, "attachment")
}

// PreviewFile streams a blob for display in the browser.
func (h HandlerSet) PreviewFile(c *gin.Context) {
	h.serveFile(c, "inline")
}

func (h HandlerSet) serveFile(c *gin.Context, disposition string) {
	id := c.Query("id")
	if id == "" || !h.files.VerifyLink(id, c.Query("sig")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid link"})
		return
	}

	body, info, err := h.files.Open(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error().Err(err).Str("blob_id", id).Msg("open blob failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, info.Size, contentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, path.Base(id)),
		"Cache-Control":       "public, max-age=86400",
	})
}
