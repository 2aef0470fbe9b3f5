package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "availability_queries_total",
			Help:      "Count of day availability computations.",
		},
	)

	slotsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "zapis",
			Name:      "availability_slots_returned",
			Help:      "Distribution of slot counts per availability query.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "booking_created_total",
			Help:      "Count of pending bookings created.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "zapis",
			Name:      "booking_conflict_total",
			Help:      "Count of bookings rejected by the overlap check.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, availabilityQueries, slotsReturned, bookingCreated, bookingConflicts)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func ObserveAvailabilityQuery(slotCount int) {
	availabilityQueries.Inc()
	slotsReturned.Observe(float64(slotCount))
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}
