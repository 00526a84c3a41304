// Package metrics exposes Prometheus counters for the habit bot.
// All collectors live in a private registry so that tests can build
// independent instances.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "habitbot"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the bot's collectors.
type Metrics struct {
	registry *prometheus.Registry

	// UpdatesTotal counts incoming Telegram updates by kind
	// (start, stats, checkin, ignored, unauthorized).
	UpdatesTotal *prometheus.CounterVec

	// CheckInsTotal counts recorded check-ins.
	CheckInsTotal prometheus.Counter

	// JobRunsTotal counts scheduled job executions.
	JobRunsTotal *prometheus.CounterVec

	// StoreOpsTotal counts storage operations (load, save, fallback).
	StoreOpsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		UpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Telegram updates processed, by kind",
			},
			[]string{"kind"},
		),
		CheckInsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkins_total",
				Help:      "Check-ins recorded",
			},
		),
		JobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduled job runs, by job and status",
			},
			[]string{"job", "status"},
		),
		StoreOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_ops_total",
				Help:      "Storage operations, by operation and status",
			},
			[]string{"op", "status"},
		),
	}

	reg.MustRegister(
		m.UpdatesTotal,
		m.CheckInsTotal,
		m.JobRunsTotal,
		m.StoreOpsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordUpdate records a processed update.
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.UpdatesTotal.WithLabelValues(kind).Inc()
}

// RecordCheckIn records a stored check-in.
func (m *Metrics) RecordCheckIn() {
	if m == nil {
		return
	}
	m.CheckInsTotal.Inc()
}

// RecordJobRun records a scheduled job execution.
func (m *Metrics) RecordJobRun(job string, err error) {
	if m == nil {
		return
	}
	m.JobRunsTotal.WithLabelValues(job, statusOf(err)).Inc()
}

// RecordStoreOp records a storage operation.
func (m *Metrics) RecordStoreOp(op string, err error) {
	if m == nil {
		return
	}
	m.StoreOpsTotal.WithLabelValues(op, statusOf(err)).Inc()
}

func statusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
