package planner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/cache/redis"
	"github.com/classpilot/backend/internal/gateway"
	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
	"github.com/classpilot/backend/pkg/logger"
	"github.com/classpilot/backend/pkg/utils"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrNotCourseOwner = errors.New("course belongs to another teacher")
	ErrEmptyMaterial  = errors.New("material has no text content")
)

// schoolDaysPerWeek maps extracted lesson days onto weekly topics.
const schoolDaysPerWeek = 5

// PlannerGateway is the slice of the LLM gateway the planner uses.
type PlannerGateway interface {
	ExtractLessons(ctx context.Context, rawText string, req gateway.ExtractionRequest) ([]gateway.Lesson, error)
	MatchStandards(ctx context.Context, description, grade, subject, standardsSystem string) ([]gateway.StandardMatch, error)
}

// Service covers the teacher-side planning flows: importing a pacing guide
// into weekly topics, matching a topic description to standards, and
// ingesting course materials.
type Service struct {
	db    *sqlite.Client
	gw    PlannerGateway
	cache *redis.Client
}

func NewService(db *sqlite.Client, gw PlannerGateway, cache *redis.Client) *Service {
	return &Service{db: db, gw: gw, cache: cache}
}

// ImportPacingGuide extracts daily lessons from raw pacing-guide text and
// persists them as weekly topics, five school days per week. Standard codes
// named in the guide are resolved against the standards table; unknown codes
// leave the topic unlinked rather than failing the import.
func (s *Service) ImportPacingGuide(ctx context.Context, courseID, teacherID, rawText string) ([]models.WeeklyTopic, error) {
	course, err := s.ownedCourse(courseID, teacherID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.gw.ExtractLessons(ctx, rawText, gateway.ExtractionRequest{
		Grade:           course.GradeLevel,
		Subject:         course.Subject,
		CourseID:        course.ID,
		StandardsSystem: course.StandardsSystem,
	})
	if err != nil {
		return nil, err
	}

	topics := make([]models.WeeklyTopic, 0, len(lessons))
	for _, lesson := range lessons {
		week := (lesson.Day-1)/schoolDaysPerWeek + 1
		if lesson.Day <= 0 {
			week = 1
		}

		topic := models.WeeklyTopic{
			ID:         uuid.New().String(),
			CourseID:   course.ID,
			WeekNumber: week,
			Title:      lesson.Title,
			StandardID: s.resolveStandard(lesson.Standard, course.StandardsSystem),
			CreatedAt:  time.Now(),
		}
		if err := s.db.InsertTopic(&topic); err != nil {
			return nil, fmt.Errorf("failed to persist topic %q: %w", topic.Title, err)
		}
		topics = append(topics, topic)
	}

	s.invalidateReplies(ctx)
	logger.Info("Pacing guide imported",
		zap.String("course_id", course.ID),
		zap.Int("topics", len(topics)),
	)

	return topics, nil
}

// AnalyzeTopic asks the gateway for candidate standards and canonicalizes
// any candidate whose code already exists in the standards table.
func (s *Service) AnalyzeTopic(ctx context.Context, description, grade, subject, standardsSystem string) ([]gateway.StandardMatch, error) {
	matches, err := s.gw.MatchStandards(ctx, description, grade, subject, standardsSystem)
	if err != nil {
		return nil, err
	}

	for i := range matches {
		if matches[i].ID == nil {
			continue
		}
		stored, err := s.db.GetStandardByCode(*matches[i].ID, standardsSystem)
		if errors.Is(err, sqlite.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		matches[i].Description = stored.Description
		matches[i].Grade = stored.Grade
		matches[i].Subject = stored.Subject
	}

	return matches, nil
}

// AddMaterial ingests a course material. HTML content is stripped to plain
// text; identical content for the same course is rejected via content hash.
func (s *Service) AddMaterial(ctx context.Context, courseID, teacherID, title, content, contentType string) (*models.Material, error) {
	course, err := s.ownedCourse(courseID, teacherID)
	if err != nil {
		return nil, err
	}

	text := content
	if contentType == "html" {
		text = cleanHTML(content)
		contentType = "text"
	}
	text = collapseWhitespace(text)
	if text == "" {
		return nil, ErrEmptyMaterial
	}

	material := &models.Material{
		ID:          uuid.New().String(),
		CourseID:    course.ID,
		Title:       strings.TrimSpace(title),
		Content:     text,
		ContentType: contentType,
		ContentHash: utils.ContentHash(text),
		CreatedAt:   time.Now(),
	}

	if err := s.db.InsertMaterial(material); err != nil {
		return nil, err
	}

	metrics.MaterialsIngested.Inc()
	s.invalidateReplies(ctx)
	logger.Info("Material ingested",
		zap.String("course_id", course.ID),
		zap.String("material_id", material.ID),
		zap.Int("content_length", len(text)),
	)

	return material, nil
}

// CreateTopic adds a single weekly topic by hand, outside the pacing-guide
// import flow.
func (s *Service) CreateTopic(ctx context.Context, courseID, teacherID string, week int, title string, standardID *string) (*models.WeeklyTopic, error) {
	course, err := s.ownedCourse(courseID, teacherID)
	if err != nil {
		return nil, err
	}

	topic := &models.WeeklyTopic{
		ID:         uuid.New().String(),
		CourseID:   course.ID,
		WeekNumber: week,
		Title:      strings.TrimSpace(title),
		StandardID: standardID,
		CreatedAt:  time.Now(),
	}
	if err := s.db.InsertTopic(topic); err != nil {
		return nil, err
	}

	s.invalidateReplies(ctx)
	return topic, nil
}

func (s *Service) UpdateTopic(ctx context.Context, topicID, teacherID string, week int, title string, standardID *string) (*models.WeeklyTopic, error) {
	topic, err := s.db.GetTopic(topicID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCourse(topic.CourseID, teacherID); err != nil {
		return nil, err
	}

	topic.WeekNumber = week
	topic.Title = strings.TrimSpace(title)
	topic.StandardID = standardID
	if err := s.db.UpdateTopic(topic); err != nil {
		return nil, err
	}

	s.invalidateReplies(ctx)
	return topic, nil
}

func (s *Service) DeleteTopic(ctx context.Context, topicID, teacherID string) error {
	topic, err := s.db.GetTopic(topicID)
	if err != nil {
		return err
	}
	if _, err := s.ownedCourse(topic.CourseID, teacherID); err != nil {
		return err
	}

	if err := s.db.DeleteTopic(topic.ID); err != nil {
		return err
	}

	s.invalidateReplies(ctx)
	return nil
}

func (s *Service) DeleteMaterial(ctx context.Context, courseID, materialID, teacherID string) error {
	if _, err := s.ownedCourse(courseID, teacherID); err != nil {
		return err
	}

	if err := s.db.DeleteMaterial(courseID, materialID); err != nil {
		return err
	}

	s.invalidateReplies(ctx)
	return nil
}

func (s *Service) ownedCourse(courseID, teacherID string) (*models.Course, error) {
	course, err := s.db.GetCourse(courseID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	if course.TeacherID != teacherID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}

func (s *Service) resolveStandard(code *string, system string) *string {
	if code == nil {
		return nil
	}
	standard, err := s.db.GetStandardByCode(*code, system)
	if err != nil {
		if !errors.Is(err, sqlite.ErrNotFound) {
			logger.Warn("Standard lookup failed", zap.Error(err))
		}
		return nil
	}
	return &standard.ID
}

// invalidateReplies drops cached tutor replies after context changes; a stale
// cache would answer against the old topic or materials.
func (s *Service) invalidateReplies(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateReplies(ctx); err != nil {
		logger.Warn("Failed to invalidate reply cache", zap.Error(err))
	}
}

var whitespaceRE = regexp.MustCompile(`\s+`)

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logger.Warn("Failed to parse HTML material", zap.Error(err))
		return ""
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()
	return doc.Find("body").Text()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}
