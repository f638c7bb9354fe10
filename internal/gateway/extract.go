package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/llm"
	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/pkg/logger"
	"github.com/classpilot/backend/pkg/retry"
)

const (
	extractTemperature = 0.1
	maxLessonTitleLen  = 100
)

// ExtractionRequest carries the pacing-guide metadata alongside the raw text.
type ExtractionRequest struct {
	Grade           string
	Subject         string
	CourseID        string
	StandardsSystem string
}

func buildExtractionSystemPrompt(req ExtractionRequest) string {
	var b strings.Builder
	b.WriteString(`You segment a teacher's pacing guide into sequential daily lessons.
The text was extracted from a PDF and may contain page headers, footers, and
broken line wraps; ignore them.

Return a single JSON object of the form:
{"lessons": [{"day": 1, "title": "lesson title", "standard": "standard code or null"}]}

Rules:
- "day" is the 1-based position of the lesson in the sequence.
- "title" is a short lesson title, not a full description.
- "standard" is the `)
	b.WriteString(req.StandardsSystem)
	b.WriteString(` code for the lesson when the guide names one, otherwise null.
- Include every teaching day you can identify, in order.
- Output JSON only, no commentary.`)
	fmt.Fprintf(&b, "\n\nThe guide is for grade %s %s.", req.Grade, req.Subject)
	return b.String()
}

// lessonWire tolerates the loose typing models produce: day may arrive as a
// number or a numeric string.
type lessonWire struct {
	Day      interface{} `json:"day"`
	Title    string      `json:"title"`
	Standard *string     `json:"standard"`
}

type lessonEnvelope struct {
	Lessons []lessonWire `json:"lessons"`
}

// ExtractLessons turns raw pacing-guide text into an ordered lesson list.
// This is the only gateway path that retries: rate limits and provider 5xx
// get up to RetryAttempts total calls with linearly growing backoff; any
// other failure propagates immediately. Entries failing validation are
// dropped; an empty result after filtering is ErrEmptyResult.
func (g *Gateway) ExtractLessons(ctx context.Context, rawText string, req ExtractionRequest) ([]Lesson, error) {
	attempts := 0
	resp, err := retry.DoWithResult(ctx, retry.Config{
		MaxAttempts: g.retryAttempts,
		Backoff:     retry.LinearBackoff(g.retryBase),
		IsRetryable: llm.IsTransient,
		Logger:      logger.GetLogger(),
	}, func() (*llm.CompletionResponse, error) {
		attempts++
		if attempts > 1 {
			metrics.LLMRetries.WithLabelValues("extract_lessons").Inc()
		}
		return g.client.Complete(ctx, llm.CompletionRequest{
			SystemPrompt: buildExtractionSystemPrompt(req),
			UserPrompt:   rawText,
			Temperature:  extractTemperature,
			JSONMode:     true,
		})
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	var envelope lessonEnvelope
	if err := json.Unmarshal([]byte(SanitizeModelJSON(resp.Content)), &envelope); err != nil {
		return nil, fmt.Errorf("%w: lesson extraction: %v", ErrMalformedResponse, err)
	}

	lessons := make([]Lesson, 0, len(envelope.Lessons))
	dropped := 0
	for _, w := range envelope.Lessons {
		lesson, ok := validateLesson(w)
		if !ok {
			dropped++
			continue
		}
		lessons = append(lessons, lesson)
	}

	if dropped > 0 {
		metrics.LessonsDropped.Add(float64(dropped))
		logger.Warn("Dropped invalid lesson entries",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(lessons)),
			zap.String("course_id", req.CourseID),
		)
	}

	if len(lessons) == 0 {
		return nil, fmt.Errorf("%w: no lessons found in pacing guide", ErrEmptyResult)
	}

	metrics.LessonsExtracted.Observe(float64(len(lessons)))
	logger.Info("Pacing guide extracted",
		zap.String("course_id", req.CourseID),
		zap.Int("lessons", len(lessons)),
		zap.Int("attempts", attempts),
	)

	return lessons, nil
}

func validateLesson(w lessonWire) (Lesson, bool) {
	day, ok := coerceDay(w.Day)
	if !ok {
		return Lesson{}, false
	}

	title := strings.TrimSpace(w.Title)
	if title == "" {
		return Lesson{}, false
	}
	if runes := []rune(title); len(runes) > maxLessonTitleLen {
		title = string(runes[:maxLessonTitleLen])
	}

	var standard *string
	if w.Standard != nil {
		if s := strings.TrimSpace(*w.Standard); s != "" && !strings.EqualFold(s, "null") {
			standard = &s
		}
	}

	return Lesson{Day: day, Title: title, Standard: standard}, true
}

func coerceDay(v interface{}) (int, bool) {
	switch d := v.(type) {
	case float64:
		return int(d), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(d))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
