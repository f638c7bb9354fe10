package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/pkg/logger"
)

const userLocalKey = "currentUser"

// RequireAuth resolves the session cookie and stores the user in locals.
// Requests without a live session get 401 before reaching the handler.
func RequireAuth(service *Service, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)

		user, ok, err := service.Authenticate(c.Context(), token)
		if err != nil {
			logger.Error("Session lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to verify session",
			})
		}
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireRole guards a route group to one role. Must run after RequireAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user placed by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalKey).(*models.User)
	return user
}
