package response

import (
	"errors"

	domainerrors "upiroute/internal/errors"

	"github.com/gofiber/fiber/v2"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "Forbidden")
}

// DomainError maps a coded domain error onto its HTTP shape; anything
// unrecognized becomes a 500 without leaking internals.
func DomainError(c *fiber.Ctx, err error) error {
	var de *domainerrors.DomainError
	if !errors.As(err, &de) {
		return ServerError(c, "internal error")
	}

	status := fiber.StatusBadRequest
	switch de.Code {
	case "ADMISSION_DENIED":
		status = fiber.StatusTooManyRequests
	case "NO_ELIGIBLE_CHANNEL", "ALL_CIRCUITS_OPEN":
		status = fiber.StatusServiceUnavailable
	case "CONCURRENT_CONFLICT":
		status = fiber.StatusConflict
	case "REQUEST_NOT_FOUND", "PAYOUT_NOT_FOUND", "OBLIGATION_NOT_FOUND", "CHANNEL_NOT_FOUND":
		status = fiber.StatusNotFound
	case "OBLIGATION_NOT_CANCELLABLE", "INVALID_PAYOUT_TRANSITION", "REQUEST_NOT_SWITCHABLE", "FALLBACK_EXHAUSTED":
		status = fiber.StatusConflict
	}

	return c.Status(status).JSON(fiber.Map{
		"error": de.Message,
		"code":  de.Code,
	})
}
