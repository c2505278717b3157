// internal/handlers/media.go
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/contoso/storefront/internal/services"
	"github.com/contoso/storefront/internal/utils"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

type MediaHandler struct {
	media *services.MediaService
}

func NewMediaHandler(media *services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// ResolveURL returns a signed delivery URL for a logical image name. An
// absent name resolves to the placeholder.
func (h *MediaHandler) ResolveURL(c *gin.Context) {
	url, err := h.media.ResolveDeliveryURL(c.Request.Context(), c.Query("name"))
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"url": url})
}

// UploadImage accepts a multipart image plus an optional release_date
// form field that becomes the object's visibility gate.
func (h *MediaHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "image file is required", nil)
		return
	}
	defer file.Close()

	if header.Size > maxImageSize {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "image exceeds the 10MB limit", nil)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "failed to read image", nil)
		return
	}

	var metadata map[string]string
	if releaseDate := c.PostForm("release_date"); releaseDate != "" {
		metadata = map[string]string{"ReleaseDate": releaseDate}
	}

	name, err := h.media.UploadImage(c.Request.Context(), storedName(header.Filename), data, metadata)
	if err != nil {
		if name != "" {
			// Content landed but the metadata write failed; report the
			// stored name so the caller can retry attaching the gate.
			utils.ErrorResponse(c, http.StatusInternalServerError, "METADATA_WRITE_FAILED",
				err.Error(), gin.H{"name": name})
			return
		}
		utils.FailWith(c, err)
		return
	}
	utils.CreatedResponse(c, gin.H{"name": name})
}

// storedName keeps uploads unique per day without leaking the original
// file name into the bucket.
func storedName(original string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s%s", time.Now().Format("20060102"), id.String()[:8], filepath.Ext(original))
}
