package room

import "github.com/prometheus/client_golang/prometheus"

var (
	roomsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeshare_rooms",
			Help: "Current number of rooms in the registry.",
		},
	)
	roomOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeshare_room_operations_total",
			Help: "Room operations applied, by kind.",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(roomsGauge, roomOperations)
}

func setRooms(count int) {
	roomsGauge.Set(float64(count))
}

func countOp(op string) {
	roomOperations.WithLabelValues(op).Inc()
}
