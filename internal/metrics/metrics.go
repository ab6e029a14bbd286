package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "bookings_total",
			Help:      "Count of booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	ledgerFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "ledger_append_failures_total",
			Help:      "Count of sheet appends that failed after the calendar event was created.",
		},
	)

	mailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "mail_send_failures_total",
			Help:      "Count of confirmation emails that failed to send.",
		},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservas",
			Name:      "availability_cache_lookups_total",
			Help:      "Count of availability cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, ledgerFailures, mailFailures, cacheLookups)
	})
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func IncLedgerFailure() {
	ledgerFailures.Inc()
}

func IncMailFailure() {
	mailFailures.Inc()
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
