// Package metrics implements Prometheus metrics for the mayl dispatch service
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	prometheusNamespace = "mayl"
	prometheusSubsystem = "dispatch"
	domainLabelName     = "domain"
)

var (
	metrics *Metrics
	once    sync.Once
)

// Metrics holds the prometheus.Collector instances
type Metrics struct {
	sendEmail       *prometheus.CounterVec
	failedSendEmail *prometheus.CounterVec
	queuedEmail     *prometheus.CounterVec
	deliveredEmail  prometheus.Counter
	deadLetterEmail prometheus.Counter
	culledArchive   prometheus.Counter
	queueSize       prometheus.Gauge
	archiveSize     prometheus.Gauge
}

// Register registers the metrics with the given prometheus.Registerer
func (m *Metrics) Register(r prometheus.Registerer) {
	r.MustRegister(m.sendEmail)
	r.MustRegister(m.failedSendEmail)
	r.MustRegister(m.queuedEmail)
	r.MustRegister(m.deliveredEmail)
	r.MustRegister(m.deadLetterEmail)
	r.MustRegister(m.culledArchive)
	r.MustRegister(m.queueSize)
	r.MustRegister(m.archiveSize)
}

// IncSendEmail increments the metric counter for synchronous send attempts
func (m *Metrics) IncSendEmail(domain string) {
	m.sendEmail.With(prometheus.Labels{domainLabelName: domain}).Inc()
}

// IncFailedSendEmail increments the metric counter for failed synchronous send attempts
func (m *Metrics) IncFailedSendEmail(domain string) {
	m.failedSendEmail.With(prometheus.Labels{domainLabelName: domain}).Inc()
}

// IncQueuedEmail increments the metric counter for queued submissions
func (m *Metrics) IncQueuedEmail(domain string) {
	m.queuedEmail.With(prometheus.Labels{domainLabelName: domain}).Inc()
}

// IncDeliveredEmail increments the metric counter for queued emails delivered by the worker
func (m *Metrics) IncDeliveredEmail() {
	m.deliveredEmail.Inc()
}

// IncDeadLetterEmail increments the metric counter for queued emails moved to the dead letter table
func (m *Metrics) IncDeadLetterEmail() {
	m.deadLetterEmail.Inc()
}

// AddCulledArchive adds the number of archive rows deleted by one culler cycle
func (m *Metrics) AddCulledArchive(n int64) {
	m.culledArchive.Add(float64(n))
}

// SetQueueSize records the current number of queued emails
func (m *Metrics) SetQueueSize(n int64) {
	m.queueSize.Set(float64(n))
}

// SetArchiveSize records the current number of archived emails
func (m *Metrics) SetArchiveSize(n int64) {
	m.archiveSize.Set(float64(n))
}

// DefaultInstance returns the global Singleton instance for Metrics
func DefaultInstance() *Metrics {
	once.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		sendEmail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "send_email_total",
			Help:      "The number of synchronous send email attempts.",
		}, []string{domainLabelName},
		),
		failedSendEmail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "failed_send_email_total",
			Help:      "The number of failed synchronous send email attempts.",
		}, []string{domainLabelName},
		),
		queuedEmail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "queued_email_total",
			Help:      "The number of emails accepted into the delivery queue.",
		}, []string{domainLabelName},
		),
		deliveredEmail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "delivered_email_total",
			Help:      "The number of queued emails delivered by the worker.",
		}),
		deadLetterEmail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "dead_letter_email_total",
			Help:      "The number of queued emails dead-lettered after exhausting delivery attempts.",
		}),
		culledArchive: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "culled_archive_total",
			Help:      "The number of archive rows deleted by the retention culler.",
		}),
		queueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "queue_size",
			Help:      "The current number of queued emails.",
		}),
		archiveSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: prometheusNamespace,
			Subsystem: prometheusSubsystem,
			Name:      "archive_size",
			Help:      "The current number of archived emails.",
		}),
	}
}
