package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/visual-rag-router/internal/core/domain"
)

const namespace = "vrr"

// queryCollectors records per-query routing outcomes for any transport.
type queryCollectors struct {
	queriesTotal  *prometheus.CounterVec
	querySources  *prometheus.HistogramVec
	queryImages   *prometheus.HistogramVec
	queryDuration *prometheus.HistogramVec
}

func newQueryCollectors() *queryCollectors {
	return &queryCollectors{
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "total",
				Help:      "Total routed queries by route and fallback kind.",
			},
			[]string{"service", "route", "fallback"},
		),
		querySources: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "sources",
				Help:      "Distribution of evidence records returned per query.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"service", "route"},
		),
		queryImages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "images",
				Help:      "Distribution of image URLs returned per query.",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"service", "route"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "End-to-end query orchestration duration in seconds.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "route"},
		),
	}
}

func (c *queryCollectors) register(registry *prometheus.Registry) {
	registry.MustRegister(c.queriesTotal, c.querySources, c.queryImages, c.queryDuration)
}

func (c *queryCollectors) observe(service string, envelope domain.ResponseEnvelope, duration time.Duration) {
	route := string(envelope.Route)
	if route == "" {
		route = "none"
	}
	fallback := string(envelope.Fallback)
	if fallback == "" {
		fallback = "none"
	}

	c.queriesTotal.WithLabelValues(service, route, fallback).Inc()
	c.querySources.WithLabelValues(service, route).Observe(float64(len(envelope.Sources)))
	c.queryImages.WithLabelValues(service, route).Observe(float64(len(envelope.Images)))
	c.queryDuration.WithLabelValues(service, route).Observe(duration.Seconds())
}
