package gateway

import (
	"context"
	"time"

	"github.com/classpilot/backend/internal/llm"
)

// CompletionClient is the provider boundary. internal/llm implements it; tests
// substitute a scripted fake.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type Config struct {
	// RetryAttempts is the total number of provider calls allowed on the
	// extraction path, including the first.
	RetryAttempts int
	// RetryBaseDelay seeds the linear backoff: delay = base * attemptsSoFar.
	RetryBaseDelay time.Duration
}

// Gateway turns structured caller intent into model prompts and untrusted
// model text back into strictly shaped results. It keeps no state between
// calls; every invocation receives its full context as parameters, so
// concurrent requests need no coordination.
type Gateway struct {
	client        CompletionClient
	retryAttempts int
	retryBase     time.Duration
}

func New(client CompletionClient, cfg Config) *Gateway {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 3 * time.Second
	}

	return &Gateway{
		client:        client,
		retryAttempts: cfg.RetryAttempts,
		retryBase:     cfg.RetryBaseDelay,
	}
}

// CourseContext is the per-request snapshot grounding a tutoring reply:
// the course, its latest weekly topic, and the matching standard if any.
type CourseContext struct {
	CourseName   string
	Subject      string
	GradeLevel   string
	CurrentTopic string
	Standard     string
}

// MaterialContext is a course material attached verbatim to the tutor prompt.
type MaterialContext struct {
	Content string
	Type    string
}

// TutorReply is the shaped chat result. Message is always non-empty.
type TutorReply struct {
	Message     string   `json:"message"`
	Context     string   `json:"context,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Lesson is one extracted pacing-guide entry. Callers persist each as a
// weekly topic row; the gateway never writes them anywhere.
type Lesson struct {
	Day      int     `json:"day"`
	Title    string  `json:"title"`
	Standard *string `json:"standard"`
}

// StandardMatch is one candidate curriculum standard for a topic description.
// Confidence is pinned to 1 by the prompt contract; it is not a ranking
// signal unless that contract changes.
type StandardMatch struct {
	ID          *string `json:"id"`
	Description string  `json:"description"`
	Grade       string  `json:"grade"`
	Subject     string  `json:"subject"`
	Confidence  float64 `json:"confidence"`
}
