package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/llm"
	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/pkg/logger"
)

const matchTemperature = 0.2

func buildMatchSystemPrompt(grade, subject, system string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You map a lesson description onto %s curriculum standards for grade %s %s.

Return a single JSON object:
{"standards": [{"id": "standard code or null", "description": "what the standard covers", "grade": %q, "subject": %q, "confidence": 1}]}

Rules:
- Propose between 1 and 5 candidate standards, best match first.
- "id" is the official standard code when you know it, otherwise null.
- "description" must never be empty.
- Set "confidence" to 1 on every candidate.
- Output JSON only, no commentary.`, system, grade, subject, grade, subject)
	return b.String()
}

type standardsEnvelope struct {
	Standards []StandardMatch `json:"standards"`
}

// MatchStandards proposes candidate curriculum standards for a free-text
// lesson description. Single call, no retry; candidates without a description
// are dropped, and an empty filtered list is ErrEmptyResult.
//
// Confidence is fixed at 1 by the prompt contract above. The model is not
// asked to calibrate it, so callers must not rank on it.
func (g *Gateway) MatchStandards(ctx context.Context, description, grade, subject, standardsSystem string) ([]StandardMatch, error) {
	resp, err := g.client.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: buildMatchSystemPrompt(grade, subject, standardsSystem),
		UserPrompt:   description,
		Temperature:  matchTemperature,
		JSONMode:     true,
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	var envelope standardsEnvelope
	if err := json.Unmarshal([]byte(SanitizeModelJSON(resp.Content)), &envelope); err != nil {
		return nil, fmt.Errorf("%w: standard matching: %v", ErrMalformedResponse, err)
	}

	matches := make([]StandardMatch, 0, len(envelope.Standards))
	for _, m := range envelope.Standards {
		m.Description = strings.TrimSpace(m.Description)
		if m.Description == "" {
			continue
		}
		if m.ID != nil && strings.TrimSpace(*m.ID) == "" {
			m.ID = nil
		}
		m.Confidence = 1
		matches = append(matches, m)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no matching standards", ErrEmptyResult)
	}

	metrics.StandardsMatched.Observe(float64(len(matches)))
	logger.Debug("Standards matched",
		zap.Int("candidates", len(matches)),
		zap.String("grade", grade),
		zap.String("subject", subject),
	)

	return matches, nil
}
