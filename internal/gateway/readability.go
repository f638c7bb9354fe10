package gateway

import (
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/pkg/logger"
)

// auditReadability measures a tutor reply against the grade-level sentence
// cap. Audit only: a long-winded reply is logged and counted, never blocked,
// since the cap is a prompt instruction the model sometimes overshoots.
func auditReadability(reply string, grade int) {
	doc, err := prose.NewDocument(reply,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		logger.Debug("Readability audit skipped", zap.Error(err))
		return
	}

	limit := MaxSentenceWords(grade)
	longest := 0
	for _, sent := range doc.Sentences() {
		if n := len(strings.Fields(sent.Text)); n > longest {
			longest = n
		}
	}

	if longest > limit {
		metrics.ReplyReadabilityOverCap.Inc()
		logger.Debug("Tutor reply exceeded sentence cap",
			zap.Int("grade", grade),
			zap.Int("cap", limit),
			zap.Int("longest_sentence_words", longest),
		)
	}
}
