package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeshare_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsMessagesDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_ws_messages_delivered_total",
			Help: "Total websocket messages queued for delivery to clients.",
		},
	)
	wsClientsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codeshare_ws_clients_dropped_total",
			Help: "Clients disconnected because their send buffer overflowed.",
		},
	)
	wsEventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeshare_ws_events_received_total",
			Help: "Inbound websocket events, by event name.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsMessagesDelivered, wsClientsDropped, wsEventsReceived)
}

func incConnections() {
	wsConnections.Inc()
}

func decConnections() {
	wsConnections.Dec()
}

func addDelivered(count int) {
	wsMessagesDelivered.Add(float64(count))
}

func countDropped() {
	wsClientsDropped.Inc()
}

func countEvent(name string) {
	wsEventsReceived.WithLabelValues(name).Inc()
}
