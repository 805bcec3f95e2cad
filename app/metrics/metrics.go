// Package metrics exports the bot's prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	wmmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects interaction, collector and operation metrics on its own
// registry.
type Metrics struct {
	registry *prometheus.Registry

	acknowledgments    *prometheus.CounterVec
	protocolViolations *prometheus.CounterVec
	platformErrors     *prometheus.CounterVec
	registrySize       prometheus.Gauge

	waits       *prometheus.CounterVec
	activeWaits prometheus.Gauge

	apiRequests *prometheus.CounterVec
	apiErrors   *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

var (
	_ interaction.Metrics = (*Metrics)(nil)
	_ collector.Metrics   = (*Metrics)(nil)
	_ operation.Metrics   = (*Metrics)(nil)
)

// New creates Metrics registered under namespace.
func New(namespace string) (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		acknowledgments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "acknowledgments_total",
			Help:      "Acknowledgment calls accepted by Discord.",
		}, []string{"action", "kind"}),
		protocolViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "protocol_violations_total",
			Help:      "Acknowledgment calls refused locally because they would break the interaction protocol.",
		}, []string{"action", "kind"}),
		platformErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "platform_errors_total",
			Help:      "Acknowledgment calls rejected by Discord.",
		}, []string{"action", "kind"}),
		registrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "tracked",
			Help:      "Interactions currently tracked.",
		}),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "waits_total",
			Help:      "Finished collector waits by outcome.",
		}, []string{"outcome"}),
		activeWaits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "active",
			Help:      "Collector subscriptions currently waiting.",
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "requests_total",
			Help:      "Operations started.",
		}, []string{"operation"}),
		apiErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "errors_total",
			Help:      "Operations that failed.",
		}, []string{"operation", "error_type"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "operation",
			Name:      "duration_seconds",
			Help:      "Operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.acknowledgments, m.protocolViolations, m.platformErrors, m.registrySize,
		m.waits, m.activeWaits,
		m.apiRequests, m.apiErrors, m.apiDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// Registry is the registry every metric is registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// AddRouterMetrics instruments a watermill router's handlers and publishers.
func (m *Metrics) AddRouterMetrics(router *message.Router, namespace string) {
	wmmetrics.NewPrometheusMetricsBuilder(m.registry, namespace, "bus").AddPrometheusRouterMetrics(router)
}

func (m *Metrics) RecordAcknowledgment(action interaction.Action, kind interaction.Kind) {
	m.acknowledgments.WithLabelValues(string(action), kind.String()).Inc()
}

func (m *Metrics) RecordProtocolViolation(action interaction.Action, kind interaction.Kind) {
	m.protocolViolations.WithLabelValues(string(action), kind.String()).Inc()
}

func (m *Metrics) RecordPlatformError(action interaction.Action, kind interaction.Kind) {
	m.platformErrors.WithLabelValues(string(action), kind.String()).Inc()
}

func (m *Metrics) RecordRegistrySize(n int) { m.registrySize.Set(float64(n)) }

func (m *Metrics) RecordWait(outcome collector.Outcome) {
	m.waits.WithLabelValues(outcome.String()).Inc()
}

func (m *Metrics) RecordActive(n int) { m.activeWaits.Set(float64(n)) }

func (m *Metrics) RecordAPIRequest(_ context.Context, op string) {
	m.apiRequests.WithLabelValues(op).Inc()
}

func (m *Metrics) RecordAPIError(_ context.Context, op string, errorType string) {
	m.apiErrors.WithLabelValues(op, errorType).Inc()
}

func (m *Metrics) RecordAPIRequestDuration(_ context.Context, op string, d time.Duration) {
	m.apiDuration.WithLabelValues(op).Observe(d.Seconds())
}
