// Package metrics exposes lobby activity as prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rtclobby"

// Inbound rejection reasons counted by the transport.
const (
	RejectMalformed   = "malformed"
	RejectRateLimited = "rate_limited"
	RejectBinary      = "binary"
)

// Metrics implements core.Observer on top of a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	connected       prometheus.Gauge
	admissions      prometheus.Counter
	denials         *prometheus.CounterVec
	disconnects     prometheus.Counter
	relays          prometheus.Counter
	drops           *prometheus.CounterVec
	inboundRejected *prometheus.CounterVec
	unauthorized    prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients_connected",
			Help:      "Clients currently in the lobby",
		}),
		admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Clients admitted to the lobby",
		}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_denials_total",
			Help:      "Connections refused by the lobby",
		}, []string{"reason"}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Clients removed from the lobby",
		}),
		relays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relays_delivered_total",
			Help:      "Relay messages handed to the recipient connection",
		}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages the lobby could not deliver",
		}, []string{"reason"}),
		inboundRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_rejected_total",
			Help:      "Client frames discarded by the transport",
		}, []string{"reason"}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unauthorized_total",
			Help:      "Websocket requests without a valid admission token",
		}),
	}

	reg.MustRegister(
		m.connected,
		m.admissions,
		m.denials,
		m.disconnects,
		m.relays,
		m.drops,
		m.inboundRejected,
		m.unauthorized,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ClientAdmitted(connected int) {
	if m == nil {
		return
	}
	m.admissions.Inc()
	m.connected.Set(float64(connected))
}

func (m *Metrics) AdmissionDenied(reason string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(reason).Inc()
}

func (m *Metrics) ClientDisconnected(connected int) {
	if m == nil {
		return
	}
	m.disconnects.Inc()
	m.connected.Set(float64(connected))
}

func (m *Metrics) RelayDelivered() {
	if m == nil {
		return
	}
	m.relays.Inc()
}

func (m *Metrics) MessageDropped(reason string) {
	if m == nil {
		return
	}
	m.drops.WithLabelValues(reason).Inc()
}

// InboundRejected counts a client frame the transport discarded.
func (m *Metrics) InboundRejected(reason string) {
	if m == nil {
		return
	}
	m.inboundRejected.WithLabelValues(reason).Inc()
}

// Unauthorized counts a refused admission token.
func (m *Metrics) Unauthorized() {
	if m == nil {
		return
	}
	m.unauthorized.Inc()
}
