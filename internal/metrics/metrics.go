package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rconclient"

// Metrics holds the collectors updated by a session.
type Metrics struct {
	FramesSent       prometheus.Counter
	FramesReceived   *prometheus.CounterVec
	FramesQueued     prometheus.Counter
	MalformedFrames  prometheus.Counter
	UnknownCallbacks prometheus.Counter
	ServerErrors     prometheus.Counter
	Restarts         prometheus.Counter
	PendingCallbacks prometheus.Gauge
	ConnectionState  prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests and throwaway sessions want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Frames written to the socket.",
		}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Well-formed frames received, by action.",
		}, []string{"action"}),
		FramesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_queued_total",
			Help:      "Sends queued because the connection was not open.",
		}),
		MalformedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Inbound frames dropped as unparseable or missing an action.",
		}),
		UnknownCallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_callbacks_total",
			Help:      "Replies whose callback id had no pending handler.",
		}),
		ServerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_errors_total",
			Help:      "Replies carrying a server error.",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Restarts scheduled after the connection closed.",
		}),
		PendingCallbacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_callbacks",
			Help:      "Requests awaiting a reply.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "0 disconnected, 1 connecting, 2 open, 3 closed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FramesSent,
			m.FramesReceived,
			m.FramesQueued,
			m.MalformedFrames,
			m.UnknownCallbacks,
			m.ServerErrors,
			m.Restarts,
			m.PendingCallbacks,
			m.ConnectionState,
		)
	}
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
