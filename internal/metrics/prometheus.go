package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChatDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classpilot_chat_duration_seconds",
			Help:    "Tutor chat turn duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"grade_tier"},
	)

	ChatTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classpilot_chat_total",
			Help: "Total tutor chat turns processed",
		},
		[]string{"status"},
	)

	ChatReplyDegraded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classpilot_chat_reply_degraded_total",
			Help: "Tutor replies that fell back to raw text after a JSON parse failure",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classpilot_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classpilot_llm_retries_total",
			Help: "Retried LLM calls by operation",
		},
		[]string{"operation"},
	)

	LessonsExtracted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classpilot_lessons_extracted_count",
			Help:    "Valid lessons per pacing-guide extraction",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	LessonsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classpilot_lessons_dropped_total",
			Help: "Extracted lesson entries dropped by validation",
		},
	)

	StandardsMatched = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "classpilot_standards_matched_count",
			Help:    "Candidate standards per topic analysis",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	ReplyReadabilityOverCap = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classpilot_reply_readability_over_cap_total",
			Help: "Tutor replies whose longest sentence exceeded the grade-level cap",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classpilot_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classpilot_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	MaterialsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "classpilot_materials_ingested_total",
			Help: "Total course materials ingested",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "classpilot_active_sessions",
			Help: "Sessions created minus sessions expired or logged out",
		},
	)
)

func Init() {
	prometheus.MustRegister(ChatDuration)
	prometheus.MustRegister(ChatTotal)
	prometheus.MustRegister(ChatReplyDegraded)
	prometheus.MustRegister(LLMTokensUsed)
	prometheus.MustRegister(LLMRetries)
	prometheus.MustRegister(LessonsExtracted)
	prometheus.MustRegister(LessonsDropped)
	prometheus.MustRegister(StandardsMatched)
	prometheus.MustRegister(ReplyReadabilityOverCap)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(MaterialsIngested)
	prometheus.MustRegister(ActiveSessions)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
