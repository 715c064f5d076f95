// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_webhook_requests_total",
			Help: "Webhook requests by outcome",
		},
		[]string{"outcome"}, // accepted, rejected_signature, rejected_payload
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_webhook_events_total",
			Help: "Inbound events by route",
		},
		[]string{"route"},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_tasks_completed_total",
			Help: "Background tasks that finished without error",
		},
		[]string{"task_type"},
	)

	TasksFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_tasks_failed_total",
			Help: "Background tasks that failed or panicked",
		},
		[]string{"task_type", "error_code"},
	)

	TasksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_tasks_rejected_total",
			Help: "Background tasks dropped because the queue was full",
		},
		[]string{"task_type"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linebot_task_duration_seconds",
			Help:    "Duration of background task processing in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"task_type"},
	)

	TasksActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "linebot_tasks_active",
			Help: "Number of tasks currently executing",
		},
		[]string{"task_type"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "linebot_task_queue_depth",
			Help: "Tasks waiting for a worker",
		},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "linebot_upstream_request_duration_seconds",
			Help:    "Latency of outbound calls by service and endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint", "status"},
	)

	MessagesPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "linebot_messages_pushed_total",
			Help: "Push messages by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	FlexFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linebot_flex_fallbacks_total",
			Help: "Flex pushes replaced by a plain text notice",
		},
	)

	RatingsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "linebot_ratings_submitted_total",
			Help: "Ratings appended to the rating store",
		},
	)
)
