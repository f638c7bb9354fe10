package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	ErrNotEnrolled    = errors.New("student is not enrolled in this course")
)

// TutorGateway is the slice of the LLM gateway the chat service uses.
type TutorGateway interface {
	GenerateTutorReply(ctx context.Context, message string, cc gateway.CourseContext, materials []gateway.MaterialContext) (*gateway.TutorReply, error)
}

// Service runs one tutor chat turn: it assembles the CourseContext snapshot,
// invokes the gateway, and persists the completed exchange. The gateway holds
// no memory, so every turn rebuilds the context from the store.
type Service struct {
	db       *sqlite.Client
	gw       TutorGateway
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(db *sqlite.Client, gw TutorGateway, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{
		db:       db,
		gw:       gw,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

type ChatResponse struct {
	ID          string    `json:"id"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Suggestions []string  `json:"suggestions"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Service) ProcessMessage(ctx context.Context, courseID, studentID, message string) (*ChatResponse, error) {
	start := time.Now()

	course, err := s.db.GetCourse(courseID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	enrolled, err := s.db.IsEnrolled(courseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	cc, err := s.assembleContext(course)
	if err != nil {
		return nil, err
	}

	materials, err := s.loadMaterials(courseID)
	if err != nil {
		return nil, err
	}

	tier := gradeTierLabel(cc.GradeLevel)
	reply, cached, err := s.replyWithCache(ctx, message, cc, materials)
	if err != nil {
		metrics.ChatTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("tutor reply failed: %w", err)
	}

	record := &models.ChatMessage{
		ID:          uuid.New().String(),
		CourseID:    courseID,
		StudentID:   studentID,
		UserMessage: message,
		TutorReply:  reply.Message,
		CreatedAt:   time.Now(),
	}
	if err := s.db.InsertChatMessage(record); err != nil {
		logger.Error("Failed to persist chat exchange", zap.Error(err))
	}

	metrics.ChatTotal.WithLabelValues("ok").Inc()
	metrics.ChatDuration.WithLabelValues(tier).Observe(time.Since(start).Seconds())
	logger.Info("Chat turn processed",
		zap.String("course_id", courseID),
		zap.String("student_id", studentID),
		zap.Bool("cached", cached),
		zap.Duration("latency", time.Since(start)),
	)

	return &ChatResponse{
		ID:          record.ID,
		Message:     reply.Message,
		Context:     reply.Context,
		Suggestions: reply.Suggestions,
		CreatedAt:   record.CreatedAt,
	}, nil
}

func (s *Service) History(courseID, studentID string, limit int) ([]models.ChatMessage, error) {
	enrolled, err := s.db.IsEnrolled(courseID, studentID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}
	return s.db.ListChatMessages(courseID, studentID, limit)
}

// assembleContext builds the read-only CourseContext snapshot: the course,
// its latest weekly topic, and that topic's standard when one is attached.
func (s *Service) assembleContext(course *models.Course) (gateway.CourseContext, error) {
	cc := gateway.CourseContext{
		CourseName: course.Name,
		Subject:    course.Subject,
		GradeLevel: course.GradeLevel,
	}

	topic, err := s.db.GetLatestTopic(course.ID)
	if errors.Is(err, sqlite.ErrNotFound) {
		return cc, nil
	}
	if err != nil {
		return cc, err
	}
	cc.CurrentTopic = topic.Title

	if topic.StandardID != nil {
		standard, err := s.db.GetStandard(*topic.StandardID)
		if err == nil {
			cc.Standard = fmt.Sprintf("%s: %s", standard.Code, standard.Description)
		} else if !errors.Is(err, sqlite.ErrNotFound) {
			return cc, err
		}
	}

	return cc, nil
}

func (s *Service) loadMaterials(courseID string) ([]gateway.MaterialContext, error) {
	rows, err := s.db.ListMaterialsByCourse(courseID)
	if err != nil {
		return nil, err
	}

	materials := make([]gateway.MaterialContext, 0, len(rows))
	for _, m := range rows {
		materials = append(materials, gateway.MaterialContext{
			Content: m.Content,
			Type:    m.ContentType,
		})
	}
	return materials, nil
}

// replyWithCache short-circuits repeat questions asked against an identical
// context. Caching is off unless a TTL is configured.
func (s *Service) replyWithCache(ctx context.Context, message string, cc gateway.CourseContext, materials []gateway.MaterialContext) (*gateway.TutorReply, bool, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		reply, err := s.gw.GenerateTutorReply(ctx, message, cc, materials)
		return reply, false, err
	}

	key := utils.ContentHash(message + "|" + cc.CourseName + "|" + cc.CurrentTopic + "|" + cc.Standard)

	var cachedReply gateway.TutorReply
	hit, err := s.cache.GetReply(ctx, key, &cachedReply)
	if err != nil {
		logger.Warn("Reply cache read failed", zap.Error(err))
	}
	if hit {
		metrics.CacheHits.WithLabelValues("reply").Inc()
		return &cachedReply, true, nil
	}
	metrics.CacheMisses.WithLabelValues("reply").Inc()

	reply, err := s.gw.GenerateTutorReply(ctx, message, cc, materials)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.SetReply(ctx, key, reply, s.cacheTTL); err != nil {
		logger.Warn("Reply cache write failed", zap.Error(err))
	}
	return reply, false, nil
}

func gradeTierLabel(gradeLevel string) string {
	grade := gateway.ParseGrade(gradeLevel)
	switch {
	case grade <= 3:
		return "early"
	case grade <= 6:
		return "middle"
	default:
		return "upper"
	}
}
