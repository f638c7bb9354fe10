package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classpilot/backend/internal/storage/sqlite"
)

type StandardHandler struct {
	db *sqlite.Client
}

func NewStandardHandler(db *sqlite.Client) *StandardHandler {
	return &StandardHandler{db: db}
}

// List returns standards filtered by any combination of grade, subject, and
// system query parameters.
func (h *StandardHandler) List(c *fiber.Ctx) error {
	standards, err := h.db.ListStandards(c.Query("grade"), c.Query("subject"), c.Query("system"))
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(standards))
	for _, s := range standards {
		out = append(out, fiber.Map{
			"id":          s.ID,
			"code":        s.Code,
			"description": s.Description,
			"grade":       s.Grade,
			"subject":     s.Subject,
			"system":      s.System,
		})
	}
	return c.JSON(fiber.Map{"standards": out})
}
