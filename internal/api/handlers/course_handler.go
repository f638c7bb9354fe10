package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/auth"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
	"github.com/classpilot/backend/pkg/logger"
)

type CourseHandler struct {
	db *sqlite.Client
}

func NewCourseHandler(db *sqlite.Client) *CourseHandler {
	return &CourseHandler{db: db}
}

func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name            string `json:"name"`
		Subject         string `json:"subject"`
		GradeLevel      string `json:"grade_level"`
		StandardsSystem string `json:"standards_system"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Subject == "" || req.GradeLevel == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name, subject, and grade level are required",
		})
	}
	if req.StandardsSystem == "" {
		req.StandardsSystem = "Common Core"
	}

	teacher := auth.CurrentUser(c)
	course := &models.Course{
		ID:              uuid.New().String(),
		TeacherID:       teacher.ID,
		Name:            req.Name,
		Subject:         req.Subject,
		GradeLevel:      req.GradeLevel,
		StandardsSystem: req.StandardsSystem,
		JoinCode:        newJoinCode(),
		CreatedAt:       time.Now(),
	}

	if err := h.db.InsertCourse(course); err != nil {
		logger.Error("Failed to create course", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}

	return c.Status(fiber.StatusCreated).JSON(courseJSON(course, true))
}

func (h *CourseHandler) ListMine(c *fiber.Ctx) error {
	user := auth.CurrentUser(c)

	var courses []models.Course
	var err error
	if user.Role == models.RoleTeacher {
		courses, err = h.db.ListCoursesByTeacher(user.ID)
	} else {
		courses, err = h.db.ListCoursesByStudent(user.ID)
	}
	if err != nil {
		logger.Error("Failed to list courses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list courses"})
	}

	out := make([]fiber.Map, 0, len(courses))
	for i := range courses {
		out = append(out, courseJSON(&courses[i], user.Role == models.RoleTeacher))
	}
	return c.JSON(fiber.Map{"courses": out})
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
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

	return c.JSON(courseJSON(course, user.ID == course.TeacherID))
}

func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	course, err := h.db.GetCourse(c.Params("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	if course.TeacherID != auth.CurrentUser(c).ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This course belongs to another teacher"})
	}

	if err := h.db.DeleteCourse(course.ID); err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Course deleted"})
}

func (h *CourseHandler) Join(c *fiber.Ctx) error {
	var req struct {
		JoinCode string `json:"join_code"`
	}

	if err := c.BodyParser(&req); err != nil || req.JoinCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Join code is required"})
	}

	course, err := h.db.GetCourseByJoinCode(strings.ToUpper(strings.TrimSpace(req.JoinCode)))
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No course with that join code"})
	}
	if err != nil {
		return gatewayError(c, err)
	}

	student := auth.CurrentUser(c)
	enrolled, err := h.db.IsEnrolled(course.ID, student.ID)
	if err != nil {
		return gatewayError(c, err)
	}
	if enrolled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already enrolled in this course"})
	}

	enrollment := &models.Enrollment{
		ID:        uuid.New().String(),
		CourseID:  course.ID,
		StudentID: student.ID,
		CreatedAt: time.Now(),
	}
	if err := h.db.InsertEnrollment(enrollment); err != nil {
		logger.Error("Failed to enroll student", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to join course"})
	}

	return c.Status(fiber.StatusCreated).JSON(courseJSON(course, false))
}

func (h *CourseHandler) ListStudents(c *fiber.Ctx) error {
	course, err := h.db.GetCourse(c.Params("id"))
	if errors.Is(err, sqlite.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	if err != nil {
		return gatewayError(c, err)
	}
	if course.TeacherID != auth.CurrentUser(c).ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This course belongs to another teacher"})
	}

	students, err := h.db.ListStudentsByCourse(course.ID)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(students))
	for i := range students {
		out = append(out, userJSON(&students[i]))
	}
	return c.JSON(fiber.Map{"students": out})
}

func courseJSON(course *models.Course, includeJoinCode bool) fiber.Map {
	out := fiber.Map{
		"id":               course.ID,
		"name":             course.Name,
		"subject":          course.Subject,
		"grade_level":      course.GradeLevel,
		"standards_system": course.StandardsSystem,
		"created_at":       course.CreatedAt,
	}
	if includeJoinCode {
		out["join_code"] = course.JoinCode
	}
	return out
}

// newJoinCode derives a short shareable code from a uuid. Eight hex chars is
// enough entropy for a classroom join code; collisions hit the unique index
// and surface as an insert error.
func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
