package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lexhub/deadline-api/internal/model"
)

// TenantID returns the authenticated tenant set by the auth
// middleware. Handlers behind the middleware can rely on it being
// present.
func TenantID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("tenant_id").(uuid.UUID)
	return id
}

// UserID returns the authenticated user set by the auth middleware.
func UserID(c *gin.Context) uuid.UUID {
	id, _ := c.MustGet("user_id").(uuid.UUID)
	return id
}

// PaginationFrom reads page/page_size query parameters with sane
// bounds.
func PaginationFrom(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if size < 1 || size > 200 {
		size = 50
	}
	return model.Pagination{Page: page, PageSize: size}
}
