package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nakulchoubisa/option-sell-bot/internal/broker"
	"github.com/nakulchoubisa/option-sell-bot/internal/types"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOrder     = "INVALID_ORDER"
	ErrCodePriceUnavailable = "PRICE_UNAVAILABLE"
	ErrCodeBrokerError      = "BROKER_ERROR"
	ErrCodeStoreError       = "STORE_ERROR"
)

// Handle maps domain errors onto the response envelope. Operations return
// either a full success payload or a single structured error with a
// machine-readable code; there is no partial success.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, broker.ErrInvalidOrder):
		respond(c, http.StatusBadRequest, ErrCodeInvalidOrder, err.Error())
	case errors.Is(err, broker.ErrPriceUnavailable):
		respond(c, http.StatusBadGateway, ErrCodePriceUnavailable, err.Error())
	case errors.Is(err, broker.ErrPricerUnsupported),
		errors.Is(err, broker.ErrUnknownPriceSource),
		errors.Is(err, broker.ErrExternalPricerUnavailable):
		respond(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, broker.ErrBroker):
		respond(c, http.StatusBadGateway, ErrCodeBrokerError, err.Error())
	case errors.Is(err, types.ErrPositionNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, types.ErrStore):
		respond(c, http.StatusInternalServerError, ErrCodeStoreError, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	default:
		InternalError(c, "An unexpected error occurred")
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

func respond(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
