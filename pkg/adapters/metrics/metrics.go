package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the dashboard's collectors on a private registry so that
// several instances (tests, CLI) never collide on the default one.
type Metrics struct {
	registry          *prometheus.Registry
	gatewayResponses  *prometheus.CounterVec
	sessionRejections prometheus.Counter
	metricFailures    prometheus.Counter
	exchanges         *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		gatewayResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_gateway_responses_total",
			Help: "Outbound calls through the authenticated gateway, by outcome.",
		}, []string{"outcome"}),
		sessionRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_session_rejections_total",
			Help: "Responses that ended the session.",
		}),
		metricFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_metric_fetch_failures_total",
			Help: "Per-link click count fetches that fell back to zero.",
		}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_auth_exchanges_total",
			Help: "Authorization code exchanges, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.gatewayResponses,
		m.sessionRejections,
		m.metricFailures,
		m.exchanges,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) ObserveResponse(outcome string) {
	m.gatewayResponses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRejection() {
	m.sessionRejections.Inc()
}

func (m *Metrics) ObserveMetricFailure() {
	m.metricFailures.Inc()
}

func (m *Metrics) ObserveExchange(result string) {
	m.exchanges.WithLabelValues(result).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
