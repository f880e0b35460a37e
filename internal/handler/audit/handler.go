package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexhub/deadline-api/internal/handler"
	"github.com/lexhub/deadline-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/audit", h.List)
}

// List returns the tenant's audit trail, newest first, optionally
// filtered by entity type.
func (h *Handler) List(c *gin.Context) {
	logs, err := h.service.List(
		c.Request.Context(),
		handler.TenantID(c),
		c.Query("entity_type"),
		handler.PaginationFrom(c),
	)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}
