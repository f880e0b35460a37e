package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Dispatch related metrics
	NotificationsSent       *prometheus.CounterVec
	NotificationsFailed     *prometheus.CounterVec
	NotificationsSuppressed prometheus.Counter
	NotificationsSuperseded prometheus.Counter
	SweepLatency            prometheus.Histogram
	SweepBatchSize          prometheus.Histogram

	// Scan related metrics
	DeadlinesScanned  prometheus.Counter
	AlertsGenerated   *prometheus.CounterVec
	ScanLatency       prometheus.Histogram
	ScanTenantsFailed prometheus.Counter

	// Channel adapter metrics
	ChannelCalls   *prometheus.CounterVec
	ChannelLatency *prometheus.HistogramVec
}

// New creates and registers all application metrics under the given
// namespace.
func New(namespace string) *Metrics {
	return &Metrics{
		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Notifications marked sent, by category",
		}, []string{"category"}),
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notifications that exhausted their attempts, by category",
		}, []string{"category"}),
		NotificationsSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Notifications acknowledged without delivery due to recipient preferences",
		}),
		NotificationsSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_superseded_total",
			Help:      "Notifications dropped because the parent deadline reached a terminal state",
		}),
		SweepLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time spent in one dispatch sweep",
			Buckets:   prometheus.DefBuckets,
		}),
		SweepBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_batch_size",
			Help:      "Notifications claimed per sweep",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		DeadlinesScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadlines_scanned_total",
			Help:      "Open deadlines examined by the daily scan",
		}),
		AlertsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_generated_total",
			Help:      "Alert notifications created by the scan, by tier",
		}, []string{"tier"}),
		ScanLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent in one daily deadline scan",
			Buckets:   prometheus.DefBuckets,
		}),
		ScanTenantsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_tenants_failed_total",
			Help:      "Tenants whose scan pass failed",
		}),
		ChannelCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_calls_total",
			Help:      "Channel adapter invocations, by channel and result",
		}, []string{"channel", "result"}),
		ChannelLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "channel_call_duration_seconds",
			Help:      "Channel adapter call latency",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"channel"}),
	}
}
