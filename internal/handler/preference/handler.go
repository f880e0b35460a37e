package preference

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/internal/model"
	"github.com/lexhub/deadline-api/internal/service/preference"
)

type Handler struct {
	service *preference.Service
}

func NewHandler(service *preference.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prefs := r.Group("/preferences")
	{
		prefs.GET("", h.Get)
		prefs.PUT("", h.Update)
		prefs.PUT("/push-token", h.UpdatePushToken)
	}
}

// Get materializes defaults on first read, so a user who never touched
// their settings still gets a concrete preference record back.
func (h *Handler) Get(c *gin.Context) {
	pref, err := h.service.GetOrCreate(c.Request.Context(), handler.TenantID(c), handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pref))
}

func (h *Handler) Update(c *gin.Context) {
	var req model.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	pref, err := h.service.Update(c.Request.Context(), handler.TenantID(c), handler.UserID(c), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pref))
}

func (h *Handler) UpdatePushToken(c *gin.Context) {
	var req model.UpdatePushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	pref, err := h.service.UpdatePushToken(c.Request.Context(), handler.TenantID(c), handler.UserID(c), req.PushToken)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(pref))
}
