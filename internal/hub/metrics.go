package hub

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the hub's Prometheus collectors. Each Server owns its
// registry so several hubs can live in one process.
type metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	gateDecisions  *prometheus.CounterVec
	pageRenders    *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	customizeFails *prometheus.CounterVec
	routes         prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestar_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		gateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestar_gate_decisions_total",
				Help: "Access gate decisions by outcome",
			},
			[]string{"outcome"},
		),
		pageRenders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestar_page_renders_total",
				Help: "Page responses by route and status",
			},
			[]string{"route", "status"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homestar_page_render_duration_seconds",
				Help:    "Time spent producing a page, customize step included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		customizeFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homestar_customize_failures_total",
				Help: "Customize steps that timed out, panicked or failed",
			},
			[]string{"route", "reason"},
		),
		routes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homestar_routes",
				Help: "Number of compiled page and redirect routes",
			},
		),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
