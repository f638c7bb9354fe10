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

type TopicHandler struct {
	db      *sqlite.Client
	planner *planner.Service
}

func NewTopicHandler(db *sqlite.Client, plannerService *planner.Service) *TopicHandler {
	return &TopicHandler{db: db, planner: plannerService}
}

type topicRequest struct {
	WeekNumber int     `json:"week_number"`
	Title      string  `json:"title"`
	StandardID *string `json:"standard_id"`
}

func (r *topicRequest) validate() string {
	if strings.TrimSpace(r.Title) == "" {
		return "Title is required"
	}
	if r.WeekNumber < 1 {
		return "Week number must be at least 1"
	}
	return ""
}

func (h *TopicHandler) Create(c *fiber.Ctx) error {
	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	topic, err := h.planner.CreateTopic(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID,
		req.WeekNumber, req.Title, req.StandardID)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(topicJSON(topic))
}

func (h *TopicHandler) List(c *fiber.Ctx) error {
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

	topics, err := h.db.ListTopicsByCourse(course.ID)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(topics))
	for i := range topics {
		out = append(out, topicJSON(&topics[i]))
	}
	return c.JSON(fiber.Map{"topics": out})
}

func (h *TopicHandler) Update(c *fiber.Ctx) error {
	var req topicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	topic, err := h.planner.UpdateTopic(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID,
		req.WeekNumber, req.Title, req.StandardID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Topic not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(topicJSON(topic))
}

func (h *TopicHandler) Delete(c *fiber.Ctx) error {
	err := h.planner.DeleteTopic(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Topic not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Topic deleted"})
}

// ImportPacingGuide runs the extraction flow: raw guide text in, weekly
// topics out.
func (h *TopicHandler) ImportPacingGuide(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Pacing guide text is required"})
	}

	topics, err := h.planner.ImportPacingGuide(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID, req.Text)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(topics))
	for i := range topics {
		out = append(out, topicJSON(&topics[i]))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"topics": out})
}

// Analyze suggests standards for a free-text topic description.
func (h *TopicHandler) Analyze(c *fiber.Ctx) error {
	var req struct {
		Description     string `json:"description"`
		Grade           string `json:"grade"`
		Subject         string `json:"subject"`
		StandardsSystem string `json:"standards_system"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Description is required"})
	}
	if req.StandardsSystem == "" {
		req.StandardsSystem = "Common Core"
	}

	matches, err := h.planner.AnalyzeTopic(c.UserContext(), req.Description, req.Grade, req.Subject, req.StandardsSystem)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches})
}

func topicJSON(topic *models.WeeklyTopic) fiber.Map {
	return fiber.Map{
		"id":          topic.ID,
		"course_id":   topic.CourseID,
		"week_number": topic.WeekNumber,
		"title":       topic.Title,
		"standard_id": topic.StandardID,
		"created_at":  topic.CreatedAt,
	}
}
