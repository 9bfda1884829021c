// Package metrics exposes Prometheus metrics for the recognition pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns a private registry and the pipeline metrics.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	probes        *prometheus.CounterVec
	ledgerWrites  *prometheus.CounterVec
	ledgerErrors  prometheus.Counter
	announceFails prometheus.Counter
	matchDistance prometheus.Histogram
	cycleDuration prometheus.Histogram
	catalogSize   prometheus.Gauge
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace (default "attendance").
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// NewManager creates a Manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "attendance",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)
	m.probes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "probes_total",
		Help:      "Probes processed, by resulting status.",
	}, []string{"state"})
	m.ledgerWrites = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ledger_writes_total",
		Help:      "Ledger record calls, by outcome.",
	}, []string{"outcome"})
	m.ledgerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "ledger_errors_total",
		Help:      "Ledger record calls that failed.",
	})
	m.announceFails = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "announce_errors_total",
		Help:      "Announcements that failed to deliver.",
	})
	m.matchDistance = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "match_distance",
		Help:      "Best catalog distance per probe.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 12),
	})
	m.cycleDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one recognition cycle.",
		Buckets:   prometheus.DefBuckets,
	})
	m.catalogSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "catalog_identities",
		Help:      "Identities in the loaded catalog.",
	})
	return m
}

// Registry returns the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProbe counts one probe with its final status.
func (m *Manager) ObserveProbe(state string) {
	m.probes.WithLabelValues(state).Inc()
}

// ObserveDistance records the best match distance of a probe.
func (m *Manager) ObserveDistance(d float64) {
	m.matchDistance.Observe(d)
}

// ObserveLedgerWrite counts a successful ledger call.
func (m *Manager) ObserveLedgerWrite(outcome string) {
	m.ledgerWrites.WithLabelValues(outcome).Inc()
}

// ObserveLedgerError counts a failed ledger call.
func (m *Manager) ObserveLedgerError() {
	m.ledgerErrors.Inc()
}

// ObserveAnnounceError counts a failed announcement.
func (m *Manager) ObserveAnnounceError() {
	m.announceFails.Inc()
}

// ObserveCycle records the duration of one cycle.
func (m *Manager) ObserveCycle(d time.Duration) {
	m.cycleDuration.Observe(d.Seconds())
}

// SetCatalogSize sets the catalog identity gauge.
func (m *Manager) SetCatalogSize(n int) {
	m.catalogSize.Set(float64(n))
}
