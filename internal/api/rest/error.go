package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cloud4india/cloud-pricing/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest   ErrorCode = "bad_request"
	errCodeNotFound     ErrorCode = "not_found"
	errCodeConflict     ErrorCode = "conflict"
	errCodeUnauthorized ErrorCode = "unauthorized"

	// Server errors (5xx)
	errCodeInternalError      ErrorCode = "internal_error"
	errCodeDatabaseError      ErrorCode = "database_error"
	errCodeServiceUnavailable ErrorCode = "service_unavailable"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message)
}

// respondConflict sends a 409 Conflict response
func respondConflict(c *gin.Context, message string) {
	respondWithError(c, http.StatusConflict, errCodeConflict, message)
}

// respondServiceUnavailable sends a 503 Service Unavailable response
func respondServiceUnavailable(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusServiceUnavailable, errCodeServiceUnavailable, message, details...)
}

// respondDatabaseError logs the error and sends a 500 response
func respondDatabaseError(c *gin.Context, err error) {
	logger.Error(err, zap.String("path", c.Request.URL.Path))
	respondWithError(c, http.StatusInternalServerError, errCodeDatabaseError, "Database error")
}
