// Package metrics defines the Prometheus collectors for the credential core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	SignupsTotal      *prometheus.CounterVec
	LoginsTotal       *prometheus.CounterVec
	GateDenialsTotal  *prometheus.CounterVec
	PasswordHashTime  *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all collectors on a private registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		SignupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daycare_auth_signups_total",
				Help: "Signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daycare_auth_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		GateDenialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daycare_auth_gate_denials_total",
				Help: "Requests stopped by the authorization gate, by reason",
			},
			[]string{"reason"},
		),
		PasswordHashTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "daycare_password_hash_seconds",
				Help:    "Time spent in bcrypt, by operation",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daycare_http_requests_total",
				Help: "HTTP requests by method, route pattern and status",
			},
			[]string{"method", "route", "status"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.SignupsTotal,
		m.LoginsTotal,
		m.GateDenialsTotal,
		m.PasswordHashTime,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SignupAttempt(outcome string) {
	m.SignupsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LoginAttempt(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// GateDenied counts a request rejected by the gate. reason is one of
// "missing_token", "invalid_token", "expired_token" or "forbidden_role".
func (m *Metrics) GateDenied(reason string) {
	m.GateDenialsTotal.WithLabelValues(reason).Inc()
}

// ObservePasswordHash matches password.Observer.
func (m *Metrics) ObservePasswordHash(op string, elapsed time.Duration) {
	m.PasswordHashTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) HTTPRequest(method, route string, status int) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
