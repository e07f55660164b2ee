package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	messagesTotal   *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	messageInFlight prometheus.Gauge

	queries *queryCollectors
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	messagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_total",
			Help:      "Total query messages handled by status.",
		},
		[]string{"service", "status"},
	)
	messageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "message_duration_seconds",
			Help:      "Query message handling duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	messageInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "messages_in_flight",
			Help:      "Number of in-flight query messages.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queries := newQueryCollectors()

	registry.MustRegister(messagesTotal, messageDuration, messageInFlight)
	queries.register(registry)

	return &WorkerMetrics{
		service:         service,
		registry:        registry,
		messagesTotal:   messagesTotal,
		messageDuration: messageDuration,
		messageInFlight: messageInFlight,
		queries:         queries,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartMessage() {
	m.messageInFlight.Inc()
}

func (m *WorkerMetrics) FinishMessage(duration time.Duration, err error) {
	m.messageInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.messagesTotal.WithLabelValues(m.service, status).Inc()
	m.messageDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQuery(envelope domain.ResponseEnvelope, duration time.Duration) {
	m.queries.observe(m.service, envelope, duration)
}
