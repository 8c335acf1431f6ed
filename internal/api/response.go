package api

import (
	"errors"
	"net/http"

	"referral_app/internal/middleware"
	"referral_app/internal/service"
	"referral_app/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// respondError maps a service error to its HTTP status. Unknown errors are
// logged and reported as a generic server error.
func respondError(c *gin.Context, op string, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		fail(c, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, service.ErrDuplicateIdentity):
		fail(c, http.StatusBadRequest, "Email or username already exists")
	case errors.Is(err, service.ErrInvalidCredential):
		fail(c, http.StatusBadRequest, "Invalid password")
	case errors.Is(err, service.ErrAccountNotFound):
		fail(c, http.StatusNotFound, "User not found")
	default:
		logger.Logger().Error("request failed",
			zap.String("op", op),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, "Server error")
	}
}

// bindJSON decodes the body and reports a failure to the client.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "Request body size exceeds limit")
			return false
		}

		logger.Logger().Debug("failed to bind request",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err))
		fail(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
