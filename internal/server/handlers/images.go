package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kinotek/kinotek/internal/modules/imagemodule"
)

// maxUploadBytes caps raw image uploads at 32 MiB
const maxUploadBytes = 32 << 20

// ImageHandler exposes the image asset endpoints
type ImageHandler struct {
	images *imagemodule.Store
}

// NewImageHandler creates an image handler
func NewImageHandler(images *imagemodule.Store) *ImageHandler {
	return &ImageHandler{images: images}
}

// Upload ingests a raw image body, runs it through the crop and
// compress pipeline, and returns the generated reference
func (h *ImageHandler) Upload(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if len(data) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return
	}

	ref, err := h.images.Save(c.Request.Context(), data)
	if err != nil {
		if errors.Is(err, imagemodule.ErrInvalidImageData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ref": ref})
}

// Serve returns the stored bytes for a reference. Unknown references
// resolve to the placeholder rather than an error.
func (h *ImageHandler) Serve(c *gin.Context) {
	ref := c.Param("ref")
	data := h.images.LoadBytes(c.Request.Context(), ref)

	contentType := "image/webp"
	if !imagemodule.IsGeneratedRef(ref) {
		if t := mime.TypeByExtension(filepath.Ext(ref)); t != "" {
			contentType = t
		}
	}
	c.Data(http.StatusOK, contentType, data)
}

// Delete removes a generated asset. Bundled references are left alone.
func (h *ImageHandler) Delete(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), c.Param("ref")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
