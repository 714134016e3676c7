package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aura"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by handler and status code.",
		},
		[]string{"handler", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by handler.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"handler"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Count of reservations created.",
		},
	)

	reservationConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Count of rejected bookings by reason.",
		},
		[]string{"reason"},
	)

	reservationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "Count of reservation status changes by target status.",
		},
		[]string{"status"},
	)

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders placed by kind (user, guest).",
		},
		[]string{"kind"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of notification attempts by sender and result.",
		},
		[]string{"sender", "result"},
	)

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_requests_total",
			Help:      "Count of availability queries by kind (day, range).",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			reservationsCreated, reservationConflicts, reservationTransitions,
			ordersCreated, notifications, availabilityRequests,
		)
	})
}

func ObserveHTTP(handler string, code int, d time.Duration) {
	httpRequests.WithLabelValues(handler, codeLabel(code)).Inc()
	httpDuration.WithLabelValues(handler).Observe(d.Seconds())
}

func IncReservationCreated() {
	reservationsCreated.Inc()
}

func IncReservationConflict(reason string) {
	reservationConflicts.WithLabelValues(reason).Inc()
}

func IncReservationTransition(status string) {
	reservationTransitions.WithLabelValues(status).Inc()
}

func IncOrderCreated(kind string) {
	ordersCreated.WithLabelValues(kind).Inc()
}

func IncNotification(sender, result string) {
	notifications.WithLabelValues(sender, result).Inc()
}

func IncAvailabilityRequest(kind string) {
	availabilityRequests.WithLabelValues(kind).Inc()
}

func codeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
