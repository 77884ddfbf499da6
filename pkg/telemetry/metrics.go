// Package telemetry exposes prometheus instrumentation for the renewal engine.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type SchedulerMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	jobDurations *prometheus.HistogramVec
	renewals     *prometheus.CounterVec
}

type WebhookMetrics struct {
	events     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

var (
	schedulerOnce sync.Once
	scheduler     *SchedulerMetrics

	webhookOnce sync.Once
	webhook     *WebhookMetrics
)

func Scheduler() *SchedulerMetrics {
	schedulerOnce.Do(func() {
		scheduler = &SchedulerMetrics{
			jobRuns: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "renewals_scheduler_job_runs_total",
				Help: "Scheduler job invocations.",
			}, []string{"job"}),
			jobErrors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "renewals_scheduler_job_errors_total",
				Help: "Scheduler job failures.",
			}, []string{"job"}),
			jobDurations: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "renewals_scheduler_job_duration_seconds",
				Help:    "Scheduler job wall time.",
				Buckets: prometheus.DefBuckets,
			}, []string{"job"}),
			renewals: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "renewals_charge_attempts_total",
				Help: "Renewal charge attempts by outcome.",
			}, []string{"gateway", "outcome"}),
		}
	})
	return scheduler
}

func (m *SchedulerMetrics) IncJobRun(job string)   { m.jobRuns.WithLabelValues(job).Inc() }
func (m *SchedulerMetrics) IncJobError(job string) { m.jobErrors.WithLabelValues(job).Inc() }

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	m.jobDurations.WithLabelValues(job).Observe(d.Seconds())
}

func (m *SchedulerMetrics) IncRenewal(gateway, outcome string) {
	m.renewals.WithLabelValues(gateway, outcome).Inc()
}

func Webhook() *WebhookMetrics {
	webhookOnce.Do(func() {
		webhook = &WebhookMetrics{
			events: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "renewals_webhook_events_total",
				Help: "Webhook events by gateway, type and outcome.",
			}, []string{"gateway", "type", "outcome"}),
			duplicates: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "renewals_webhook_duplicate_events_total",
				Help: "Webhook deliveries skipped as duplicates.",
			}, []string{"gateway"}),
		}
	})
	return webhook
}

func (m *WebhookMetrics) IncEvent(gateway, eventType, outcome string) {
	m.events.WithLabelValues(gateway, eventType, outcome).Inc()
}

func (m *WebhookMetrics) IncDuplicate(gateway string) {
	m.duplicates.WithLabelValues(gateway).Inc()
}
