package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lexhub/deadline-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps an application error to its HTTP status and writes
// the standard error envelope.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperrors.Code(err) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrBadRequest, apperrors.ErrInvalidTransition, apperrors.ErrCaseClosed:
		status = http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrForbidden, apperrors.ErrTenantIsolation:
		status = http.StatusForbidden
	}

	c.JSON(status, NewErrorResponse(err.Error()))
}
