package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 题目生成：outcome = ok | empty | upstream_error | parse_error
	GenerationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_generation_total",
			Help: "Question generation calls by outcome",
		},
		[]string{"outcome"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_generation_duration_seconds",
			Help:    "Latency of calls to the question generation service",
			Buckets: []float64{1, 2, 5, 10, 20, 40, 60},
		},
	)

	QuestionsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_generated_questions_dropped_total",
			Help: "Generated items rejected by validation",
		},
	)

	AttemptEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_events_total",
			Help: "Attempt lifecycle events",
		},
		[]string{"event"},
	)

	DifficultyChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_difficulty_changes_total",
			Help: "Adaptive difficulty transitions",
		},
		[]string{"direction"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(GenerationCounter)
		prometheus.MustRegister(GenerationDuration)
		prometheus.MustRegister(QuestionsDropped)
		prometheus.MustRegister(AttemptEvents)
		prometheus.MustRegister(DifficultyChanges)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
