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
)

const tutorTemperature = 0.7

// fallbackSuggestions are returned whenever the model reply cannot be parsed
// as JSON. Three fixed prompts keep the frontend's suggestion chips populated.
var fallbackSuggestions = []string{
	"Can you explain that again?",
	"Can you show me an example?",
	"What should I try next?",
}

// ParseGrade maps a grade-level label to a number. Kindergarten is 0.
// Unrecognized labels land in the middle tier.
func ParseGrade(level string) int {
	s := strings.TrimSpace(strings.ToUpper(level))
	s = strings.TrimSuffix(s, "TH GRADE")
	s = strings.TrimSuffix(s, " GRADE")
	s = strings.TrimSpace(s)
	if s == "K" || s == "KINDERGARTEN" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return 5
}

// MaxSentenceWords caps tutor reply sentence length for a grade. The cap
// grows with grade and tops out at 20 words.
func MaxSentenceWords(grade int) int {
	words := 8 + 2*grade
	if words > 20 {
		return 20
	}
	return words
}

// MaxWordLength caps vocabulary word length for a grade, topping out at 8.
func MaxWordLength(grade int) int {
	length := 4 + grade/2
	if length > 8 {
		return 8
	}
	return length
}

// gradeTier names the complexity band used in prompts and metrics.
func gradeTier(grade int) string {
	switch {
	case grade <= 3:
		return "early"
	case grade <= 6:
		return "middle"
	default:
		return "upper"
	}
}

func tierInstructions(grade int) string {
	switch gradeTier(grade) {
	case "early":
		return `Use very simple words a young child knows. One idea per sentence.
Be warm and encouraging. Use examples with toys, animals, food, and play.
Never use abstract terms without a concrete example.`
	case "middle":
		return `Use clear everyday vocabulary. Short explanations with one concrete
example each. Relate ideas to school, sports, games, and daily life.
Define any new term the first time you use it.`
	default:
		return `Use precise subject vocabulary and explain reasoning step by step.
Connect ideas to real-world applications. Encourage the student to reason
about why, not just what.`
	}
}

func buildTutorSystemPrompt(cc CourseContext, materials []MaterialContext) string {
	grade := ParseGrade(cc.GradeLevel)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a patient tutor helping a grade %s student in the course %q (%s).\n",
		cc.GradeLevel, cc.CourseName, cc.Subject)
	if cc.CurrentTopic != "" {
		fmt.Fprintf(&b, "The class is currently studying: %s.\n", cc.CurrentTopic)
	}
	if cc.Standard != "" {
		fmt.Fprintf(&b, "The current learning standard is: %s.\n", cc.Standard)
	}

	b.WriteString("\n")
	b.WriteString(tierInstructions(grade))
	fmt.Fprintf(&b, "\n\nKeep sentences at most %d words. Prefer words of at most %d letters.\n",
		MaxSentenceWords(grade), MaxWordLength(grade))

	b.WriteString(`
Respond with a single JSON object:
{"message": "your reply to the student", "context": "optional one-line note on how this relates to the current topic", "suggestions": ["three short follow-up questions the student could ask next"]}
Always include exactly three suggestions.`)

	if len(materials) > 0 {
		b.WriteString("\n\nCourse materials for reference:\n")
		for i, m := range materials {
			fmt.Fprintf(&b, "--- material %d (%s) ---\n%s\n", i+1, m.Type, m.Content)
		}
	}

	return b.String()
}

// GenerateTutorReply answers one student message. It issues exactly one
// provider call; provider failures propagate unretried. A reply that fails
// JSON parsing is not an error: the raw text becomes the message and fixed
// suggestions fill in. The returned reply always has a non-empty message.
func (g *Gateway) GenerateTutorReply(ctx context.Context, message string, cc CourseContext, materials []MaterialContext) (*TutorReply, error) {
	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: buildTutorSystemPrompt(cc, materials),
		UserPrompt:   message,
		Temperature:  tutorTemperature,
		JSONMode:     true,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	reply := parseTutorReply(resp.Content)
	auditReadability(reply.Message, ParseGrade(cc.GradeLevel))
	return reply, nil
}

func parseTutorReply(content string) *TutorReply {
	var reply TutorReply
	if err := json.Unmarshal([]byte(SanitizeModelJSON(content)), &reply); err == nil && strings.TrimSpace(reply.Message) != "" {
		if len(reply.Suggestions) == 0 {
			reply.Suggestions = fallbackSuggestions
		}
		return &reply
	}

	metrics.ChatReplyDegraded.Inc()
	logger.Warn("Tutor reply was not valid JSON, degrading to raw text",
		zap.Int("content_length", len(content)),
	)

	raw := strings.TrimSpace(content)
	if raw == "" {
		raw = "I didn't quite get that. Can you ask me again in a different way?"
	}

	return &TutorReply{
		Message:     raw,
		Suggestions: fallbackSuggestions,
	}
}
