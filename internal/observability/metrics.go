package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aikona_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aikona_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// CompletionAttempts counts every outbound completion call, retries included.
	CompletionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aikona_completion_attempts_total",
		Help: "Completion API attempts by outcome",
	}, []string{"outcome"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aikona_ratelimit_rejections_total",
		Help: "Chat turns rejected by the completion rate limiter",
	})

	ChatReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aikona_chat_replies_total",
		Help: "Chat replies by source (model or canned)",
	}, []string{"source"})
)
