package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/chat"
	"github.com/classpilot/backend/internal/gateway"
	"github.com/classpilot/backend/internal/planner"
	"github.com/classpilot/backend/internal/storage/sqlite"
	"github.com/classpilot/backend/pkg/logger"
)

// gatewayError translates the gateway's failure taxonomy into an HTTP
// response. Transient and upstream provider failures are the provider's
// fault (502); an empty result is a usable request that produced nothing
// actionable (422).
func gatewayError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gateway.ErrEmptyResult):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, gateway.ErrMalformedResponse):
		logger.Error("Model returned malformed output", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The AI service returned an unusable response. Please try again.",
		})
	case errors.Is(err, gateway.ErrTransientProvider):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The AI service is temporarily unavailable. Please try again shortly.",
		})
	case errors.Is(err, gateway.ErrUpstream):
		logger.Error("Upstream provider failure", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "The AI service request failed.",
		})
	case errors.Is(err, chat.ErrCourseNotFound),
		errors.Is(err, planner.ErrCourseNotFound),
		errors.Is(err, sqlite.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Course not found",
		})
	case errors.Is(err, chat.ErrNotEnrolled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not enrolled in this course",
		})
	case errors.Is(err, planner.ErrNotCourseOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This course belongs to another teacher",
		})
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
