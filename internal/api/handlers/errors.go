package handlers

import (
	"errors"

	"ai-receipt/internal/apperr"
	"ai-receipt/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest, apperr.Message(err, "Bad request")
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound, apperr.Message(err, "Not found")
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden, apperr.Message(err, "Forbidden")
	case errors.Is(err, apperr.ErrUpstream):
		return fiber.StatusBadGateway, apperr.Message(err, "Upstream service failed")
	case errors.Is(err, apperr.ErrConfiguration):
		return fiber.StatusServiceUnavailable, apperr.Message(err, "Service not configured")
	default:
		return fiber.StatusInternalServerError, internalErrorMessage
	}
}

func respondError(c *fiber.Ctx, logger *zap.Logger, op string, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(op, zap.Error(err), zap.Int("status", status))
	} else {
		logger.Debug(op, zap.Error(err), zap.Int("status", status))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// getPrincipal returns the principal set by the auth middleware, or "" when
// the request carries none.
func getPrincipal(c *fiber.Ctx) string {
	principal, _ := c.Locals(middleware.PrincipalKey).(string)
	return principal
}
