package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lostfound_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lostfound_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reportsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_reports_submitted_total",
			Help: "Reports submitted for approval",
		},
		[]string{"with_photo"},
	)

	commentsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_comments_submitted_total",
			Help: "Comments added to reports",
		},
		[]string{"helper"},
	)

	sosEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_sos_events_total",
			Help: "SOS events recorded, split by whether any report matched the location",
		},
		[]string{"matched"},
	)

	moderationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lostfound_moderation_actions_total",
			Help: "Admin moderation actions applied",
		},
		[]string{"action"},
	)
)

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func recordReportSubmitted(withPhoto bool) {
	reportsSubmittedTotal.WithLabelValues(strconv.FormatBool(withPhoto)).Inc()
}

func recordCommentSubmitted(helper bool) {
	commentsSubmittedTotal.WithLabelValues(strconv.FormatBool(helper)).Inc()
}

func recordSOSEvent(matched bool) {
	sosEventsTotal.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

func recordModerationAction(action string) {
	moderationActionsTotal.WithLabelValues(action).Inc()
}
