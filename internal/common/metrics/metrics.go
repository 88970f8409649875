// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_notifications_created_total",
			Help: "Total number of notifications created per handler",
		},
		[]string{"handler"},
	)

	HandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_handler_failures_total",
			Help: "Total number of failed handler runs",
		},
		[]string{"handler", "error_code"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_dispatch_failures_total",
			Help: "Total number of failed dispatcher invocations",
		},
		[]string{"dispatcher"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notify_handler_duration_seconds",
			Help: "Duration of a single handler pipeline run in seconds",
		},
		[]string{"handler"},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_tasks_processed_total",
			Help: "Total number of deferred tasks processed by the worker",
		},
		[]string{"status"},
	)
)
