package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/service/notification"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.List)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.GET("/stats", h.Stats)
		notifications.POST("/mark-read", h.MarkRead)
		notifications.POST("/mark-all-read", h.MarkAllRead)
	}
}

func (h *Handler) List(c *gin.Context) {
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.service.ListForUser(
		c.Request.Context(),
		handler.TenantID(c),
		handler.UserID(c),
		unreadOnly,
		handler.PaginationFrom(c),
	)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(notifications))
}

func (h *Handler) UnreadCount(c *gin.Context) {
	count, err := h.service.CountUnread(c.Request.Context(), handler.TenantID(c), handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"unread": count}))
}

func (h *Handler) MarkRead(c *gin.Context) {
	var req model.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.MarkRead(c.Request.Context(), handler.TenantID(c), handler.UserID(c), req.IDs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.service.MarkAllRead(c.Request.Context(), handler.TenantID(c), handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"updated": updated}))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), handler.TenantID(c), handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
