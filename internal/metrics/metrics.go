package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutorbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbook_bookings_total",
			Help: "Total number of bookings created",
		},
		[]string{"session_type"},
	)

	BookingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorbook_booking_conflicts_total",
			Help: "Total number of booking attempts rejected because the slot was taken",
		},
	)

	BookingStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbook_booking_status_transitions_total",
			Help: "Total number of booking status transitions",
		},
		[]string{"to_status"},
	)

	CreditAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbook_credit_adjustments_total",
			Help: "Total number of credit ledger adjustments",
		},
		[]string{"type", "category"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutorbook_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorbook_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	AvailabilityRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutorbook_availability_requests_total",
			Help: "Total number of availability lookups",
		},
	)

	BlockedDatesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tutorbook_blocked_dates_active",
			Help: "Number of currently blocked dates",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(sessionType string) {
	BookingsTotal.WithLabelValues(sessionType).Inc()
}

func RecordBookingConflict() {
	BookingConflictsTotal.Inc()
}

func RecordStatusTransition(toStatus string) {
	BookingStatusTransitionsTotal.WithLabelValues(toStatus).Inc()
}

func RecordCreditAdjustment(entryType, category string) {
	CreditAdjustmentsTotal.WithLabelValues(entryType, category).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordAvailabilityRequest() {
	AvailabilityRequestsTotal.Inc()
}
