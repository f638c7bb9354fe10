package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/classpilot/backend/internal/auth"
	"github.com/classpilot/backend/internal/planner"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
)

type MaterialHandler struct {
	db      *sqlite.Client
	planner *planner.Service
}

func NewMaterialHandler(db *sqlite.Client, plannerService *planner.Service) *MaterialHandler {
	return &MaterialHandler{db: db, planner: plannerService}
}

func (h *MaterialHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		ContentType string `json:"content_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title and content are required"})
	}
	if req.ContentType == "" {
		req.ContentType = "text"
	}
	if req.ContentType != "text" && req.ContentType != "html" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content type must be text or html"})
	}

	material, err := h.planner.AddMaterial(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID,
		req.Title, req.Content, req.ContentType)
	if errors.Is(err, sqlite.ErrDuplicateMaterial) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This material already exists for the course"})
	}
	if errors.Is(err, planner.ErrEmptyMaterial) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Material has no text content"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(materialJSON(material, false))
}

func (h *MaterialHandler) List(c *fiber.Ctx) error {
	course, err := h.db.GetCourse(c.Params("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}

	user := auth.CurrentUser(c)
	if user.ID != course.TeacherID {
		enrolled, err := h.db.IsEnrolled(course.ID, user.ID)
		if err != nil {
			return gatewayError(c, err)
		}
		if !enrolled {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You do not have access to this course",
			})
		}
	}

	materials, err := h.db.ListMaterialsByCourse(course.ID)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(materials))
	for i := range materials {
		out = append(out, materialJSON(&materials[i], true))
	}
	return c.JSON(fiber.Map{"materials": out})
}

func (h *MaterialHandler) Delete(c *fiber.Ctx) error {
	err := h.planner.DeleteMaterial(c.UserContext(), c.Params("id"), c.Params("materialId"), auth.CurrentUser(c).ID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Material not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Material deleted"})
}

func materialJSON(m *models.Material, summary bool) fiber.Map {
	out := fiber.Map{
		"id":           m.ID,
		"course_id":    m.CourseID,
		"title":        m.Title,
		"content_type": m.ContentType,
		"created_at":   m.CreatedAt,
	}
	if summary {
		out["content_length"] = len(m.Content)
	} else {
		out["content"] = m.Content
	}
	return out
}
