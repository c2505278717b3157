// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contoso/storefront/internal/apperrors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FailWith maps the shared error taxonomy onto HTTP statuses.
func FailWith(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case apperrors.IsConflict(err):
		ErrorResponse(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case apperrors.IsCancelled(err):
		// 499 is the de-facto status for client-cancelled requests.
		ErrorResponse(c, 499, "CANCELLED", err.Error(), nil)
	case errors.Is(err, apperrors.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "backend store unavailable", nil)
	default:
		ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    result.Data,
		Meta: gin.H{
			"pagination": gin.H{
				"page":        result.Page,
				"page_size":   result.PageSize,
				"total":       result.Total,
				"total_pages": result.TotalPages,
			},
		},
	})
}
