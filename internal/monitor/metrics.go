// Package monitor exposes match server metrics to Prometheus.
package monitor

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/seabattle/internal/model"
)

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	OnlinePlayers    prometheus.Gauge
	ActiveRooms      prometheus.Gauge
	ShotsFired       *prometheus.CounterVec
	MatchesFinished  *prometheus.CounterVec
	MessagesReceived prometheus.Counter
	MessageLatency   prometheus.Histogram
}

// NewMetrics creates and registers every collector under the given namespace
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_players",
			Help:      "Number of connected players",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of rooms that have not finished",
		}),
		ShotsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shots_total",
			Help:      "Shots resolved, by outcome",
		}, []string{"status"}),
		MatchesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_finished_total",
			Help:      "Finished matches, by how they ended",
		}, []string{"reason"}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of websocket messages received",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Websocket message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.OnlinePlayers,
		m.ActiveRooms,
		m.ShotsFired,
		m.MatchesFinished,
		m.MessagesReceived,
		m.MessageLatency,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RoomOpened() {
	m.ActiveRooms.Inc()
}

func (m *Metrics) RoomClosed() {
	m.ActiveRooms.Dec()
}

func (m *Metrics) ShotResolved(status model.ShotStatus) {
	m.ShotsFired.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) MatchFinished(forfeit bool) {
	reason := "sunk"
	if forfeit {
		reason = "forfeit"
	}
	m.MatchesFinished.WithLabelValues(reason).Inc()
}

func (m *Metrics) PlayerConnected() {
	m.OnlinePlayers.Inc()
}

func (m *Metrics) PlayerDisconnected() {
	m.OnlinePlayers.Dec()
}

// ObserveMessage counts one inbound message and how long it took to handle
func (m *Metrics) ObserveMessage(duration time.Duration) {
	m.MessagesReceived.Inc()
	m.MessageLatency.Observe(duration.Seconds())
}
