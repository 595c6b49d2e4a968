package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/service"
)

type imageResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	DisplaySection string    `json:"displaySection"`
	Location       string    `json:"location,omitempty"`
	Year           string    `json:"year,omitempty"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Views          int64     `json:"views"`
	UploadedAt     time.Time `json:"uploadedAt"`
}

// The bucket and object key never leave the server.
func toImageResponse(img models.Image) imageResponse {
	return imageResponse{
		ID:             img.ID,
		Title:          img.Title,
		Category:       string(img.Category),
		DisplaySection: string(img.DisplaySection),
		Location:       img.Location,
		Year:           img.Year,
		Width:          img.Width,
		Height:         img.Height,
		Views:          img.Views,
		UploadedAt:     img.UploadedAt,
	}
}

func toImageResponses(imgs []models.Image) []imageResponse {
	out := make([]imageResponse, 0, len(imgs))
	for _, img := range imgs {
		out = append(out, toImageResponse(img))
	}
	return out
}

func (h HandlerSet) ListImages(c *gin.Context) {
	images, err := h.images.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.log.Error().Err(err).Msg("list images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, toImageResponses(images))
}

func (h HandlerSet) HomeImages(c *gin.Context) {
	images, err := h.images.ListBySection(c.Request.Context(), models.SectionHome, "")
	if err != nil {
		h.log.Error().Err(err).Msg("list home images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, toImageResponses(images))
}

func (h HandlerSet) GalleryImages(c *gin.Context) {
	images, err := h.images.ListBySection(c.Request.Context(), models.SectionGallery, c.Query("category"))
	if err != nil {
		h.log.Error().Err(err).Msg("list gallery images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, toImageResponses(images))
}

func (h HandlerSet) ImageMeta(c *gin.Context) {
	image, err := h.images.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Str("image_id", c.Param("id")).Msg("image meta lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}
	c.JSON(http.StatusOK, toImageResponse(image))
}

func (h HandlerSet) ImageToken(c *gin.Context) {
	grant, err := h.accessService.RequestToken(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Str("image_id", c.Param("id")).Msg("token request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     grant.Token,
		"expiresIn": grant.ExpiresInMillis,
	})
}

func (h HandlerSet) ViewImage(c *gin.Context) {
	imageID := c.Param("id")

	origin := c.GetHeader("Referer")
	if origin == "" {
		origin = c.GetHeader("Origin")
	}

	result, err := h.accessService.View(c.Request.Context(), service.ViewInput{
		ImageID:   imageID,
		Token:     c.Query("token"),
		Origin:    origin,
		Thumbnail: c.Query("thumbnail") == "true",
		Watermark: c.Query("watermark") == "true",
	})
	if err != nil {
		var denied *service.AccessError
		switch {
		case errors.As(err, &denied):
			// The reason stays in the logs; the body is deliberately generic.
			h.log.Warn().
				Str("image_id", imageID).
				Str("reason", denied.Reason).
				Err(denied.Err).
				Msg("image view denied")
			c.JSON(http.StatusForbidden, gin.H{"error": "access_denied"})
		case errors.Is(err, service.ErrImageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
		case errors.Is(err, pipeline.ErrDecode):
			h.log.Error().Err(err).Str("image_id", imageID).Msg("image decode failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing_failed"})
		case errors.Is(err, service.ErrStorageUnavailable):
			h.log.Error().Err(err).Str("image_id", imageID).Msg("storage unavailable")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_unavailable"})
		default:
			h.log.Error().Err(err).Str("image_id", imageID).Msg("image view failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "processing_failed"})
		}
		return
	}

	// Inline display only; intermediaries must not cache the rendered bytes.
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
	c.Header("Content-Disposition", "inline")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
