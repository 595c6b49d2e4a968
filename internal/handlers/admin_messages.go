package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lensfolio/api/internal/repository"
)

type messageResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Replied   bool      `json:"replied"`
	CreatedAt time.Time `json:"createdAt"`
}

func pageParams(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxLimit {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return limit, offset
}

func (h HandlerSet) AdminListMessages(c *gin.Context) {
	limit, offset := pageParams(c, 50, 200)

	messages, err := h.messages.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list messages failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, messageResponse{
			ID:        msg.ID,
			Name:      msg.Name,
			Email:     msg.Email,
			Subject:   msg.Subject,
			Message:   msg.Message,
			Read:      msg.Read,
			Replied:   msg.Replied,
			CreatedAt: msg.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) AdminMarkMessageRead(c *gin.Context) {
	read := c.DefaultQuery("read", "true") == "true"

	if err := h.messages.MarkRead(c.Request.Context(), c.Param("id"), read); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("mark message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AdminMarkMessageReplied(c *gin.Context) {
	replied := c.DefaultQuery("replied", "true") == "true"

	if err := h.messages.MarkReplied(c.Request.Context(), c.Param("id"), replied); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("mark message replied failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h HandlerSet) AdminDeleteMessage(c *gin.Context) {
	if err := h.messages.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message_not_found"})
			return
		}
		h.log.Error().Err(err).Msg("delete message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}
