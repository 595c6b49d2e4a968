package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/media/pipeline"
	"lensfolio/api/internal/media/sniffer"
	"lensfolio/api/internal/repository"
	"lensfolio/api/internal/service"
	"lensfolio/api/internal/storage"
)

func (h HandlerSet) AdminListImages(c *gin.Context) {
	images, err := h.images.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		h.log.Error().Err(err).Msg("admin list images failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	// The catalog tops out at a few hundred rows; paging happens in memory.
	limit, offset := pageParams(c, 50, 200)
	total := len(images)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"items": toImageResponses(images[offset:end]),
		"total": total,
	})
}

func (h HandlerSet) AdminUploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.Media.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read_failed"})
		return
	}

	record, err := h.uploadService.Upload(c.Request.Context(), service.UploadInput{
		Data:           data,
		OriginalName:   header.Filename,
		DeclaredType:   sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
		Title:          c.PostForm("title"),
		Category:       c.PostForm("category"),
		DisplaySection: c.PostForm("displaySection"),
		Location:       c.PostForm("location"),
		Year:           c.PostForm("year"),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("upload failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "image uploaded",
		"image":   toImageResponse(record),
	})
}

type updateImageRequest struct {
	Title          *string `json:"title"`
	Category       *string `json:"category"`
	DisplaySection *string `json:"displaySection"`
	Location       *string `json:"location"`
	Year           *string `json:"year"`
}

func (h HandlerSet) AdminUpdateImage(c *gin.Context) {
	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.images.UpdateMeta(c.Request.Context(), c.Param("id"), repository.ImageMetaUpdate{
		Title:          req.Title,
		Category:       req.Category,
		DisplaySection: req.DisplaySection,
		Location:       req.Location,
		Year:           req.Year,
	})
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("update image failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AdminDeleteImage(c *gin.Context) {
	if err := h.uploadService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete image failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// AdminImagePreview serves a thumbnail for the dashboard; unlike the public
// view path it needs no access token, only the admin session.
func (h HandlerSet) AdminImagePreview(c *gin.Context) {
	image, err := h.images.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_not_found"})
			return
		}
		h.log.Error().Err(err).Str("image_id", c.Param("id")).Msg("preview lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}

	source, err := h.store.Fetch(c.Request.Context(), image.Bucket, image.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image_bytes_missing"})
			return
		}
		h.log.Error().Err(err).Str("image_id", image.ID).Msg("fetch preview source failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage_unavailable"})
		return
	}

	data, err := h.renderer.Render(source, pipeline.Options{Thumbnail: true})
	if err != nil {
		h.log.Error().Err(err).Str("image_id", image.ID).Msg("render preview failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing_failed"})
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h HandlerSet) AdminStats(c *gin.Context) {
	recentSince := time.Now().AddDate(0, 0, -7)

	stats, err := h.images.CollectStats(c.Request.Context(), recentSince, 5)
	if err != nil {
		h.log.Error().Err(err).Msg("collect stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
		return
	}

	totalMessages, unreadMessages, err := h.messages.Counts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("count messages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats_failed"})
		return
	}

	top := make([]gin.H, 0, len(stats.TopViewed))
	for _, img := range stats.TopViewed {
		top = append(top, gin.H{
			"id":       img.ID,
			"title":    img.Title,
			"category": img.Category,
			"views":    img.Views,
			"location": img.Location,
			"year":     img.Year,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"totalImages":     stats.TotalImages,
		"totalViews":      stats.TotalViews,
		"recentUploads":   stats.RecentUploads,
		"countByCategory": stats.CountByCat,
		"viewsByCategory": stats.ViewsByCat,
		"topImages":       top,
		"totalMessages":   totalMessages,
		"unreadMessages":  unreadMessages,
	})
}
