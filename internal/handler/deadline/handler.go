package deadline

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/service/deadline"
)

type Handler struct {
	service *deadline.Service
}

func NewHandler(service *deadline.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	deadlines := r.Group("/deadlines")
	{
		deadlines.POST("", h.Create)
		deadlines.GET("/pending", h.ListPending)
		deadlines.GET("/urgent", h.ListUrgent)
		deadlines.GET("/overdue", h.ListOverdue)
		deadlines.GET("/:id", h.Get)
		deadlines.PUT("/:id", h.Update)
		deadlines.POST("/:id/start", h.Start)
		deadlines.POST("/:id/fulfill", h.Fulfill)
		deadlines.POST("/:id/cancel", h.Cancel)
	}
	r.GET("/cases/:case_id/deadlines", h.ListByCase)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	d, err := h.service.Create(c.Request.Context(), handler.TenantID(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), handler.TenantID(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	var req model.UpdateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	d, err := h.service.Update(c.Request.Context(), handler.TenantID(c), id, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Start(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	d, err := h.service.Start(c.Request.Context(), handler.TenantID(c), id, handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Fulfill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	d, err := h.service.Fulfill(c.Request.Context(), handler.TenantID(c), id, handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid deadline ID"))
		return
	}

	var req model.CancelDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	d, err := h.service.Cancel(c.Request.Context(), handler.TenantID(c), id, handler.UserID(c), req.Reason)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) ListPending(c *gin.Context) {
	horizon, _ := strconv.Atoi(c.DefaultQuery("horizon_days", "30"))

	deadlines, err := h.service.ListPending(c.Request.Context(), handler.TenantID(c), horizon)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}

func (h *Handler) ListUrgent(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "0"))

	deadlines, err := h.service.ListUrgent(c.Request.Context(), handler.TenantID(c), days)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}

func (h *Handler) ListOverdue(c *gin.Context) {
	deadlines, err := h.service.ListOverdue(c.Request.Context(), handler.TenantID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}

func (h *Handler) ListByCase(c *gin.Context) {
	caseID, err := uuid.Parse(c.Param("case_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	deadlines, err := h.service.ListByCase(c.Request.Context(), handler.TenantID(c), caseID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(deadlines))
}
