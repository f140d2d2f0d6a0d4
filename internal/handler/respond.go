package handler

import (
	"errors"
	"net/http"

	"github.com/adityarh/antarin/internal/middleware"
	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/service"
	"github.com/adityarh/antarin/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service failures to HTTP statuses. Unknown errors come
// back as 400 with their message, matching the API's flat error envelope.
func respondError(c *gin.Context, err error) {
	var cooldown *service.CooldownError
	if errors.As(err, &cooldown) {
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
			Error:      cooldown.Error(),
			RetryAfter: cooldown.RemainingSeconds,
		})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrOTPNotFound),
		errors.Is(err, service.ErrDriverNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefresh):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOrderParty):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrPhoneTaken),
		errors.Is(err, service.ErrDriverExists),
		errors.Is(err, service.ErrActiveOrderExists),
		errors.Is(err, service.ErrInvalidOrderStatus):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientBalance):
		status = http.StatusPaymentRequired
	case errors.Is(err, storage.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, model.ErrorResponse{Error: err.Error()})
}

// currentUserID reads the authenticated user from the gin context
func currentUserID(c *gin.Context) uuid.UUID {
	val, _ := c.Get(middleware.CtxUserID)
	id, _ := val.(uuid.UUID)
	return id
}

// currentRole reads the authenticated role from the gin context
func currentRole(c *gin.Context) model.Role {
	val, _ := c.Get(middleware.CtxRole)
	role, _ := val.(model.Role)
	return role
}
