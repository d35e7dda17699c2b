package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Business counters

	FacturesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factures_created_total",
			Help: "Invoices created, by type",
		},
		[]string{"type"},
	)

	FacturePayments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factures_payments_recorded_total",
			Help: "Payment recording attempts on invoices, by outcome",
		},
		[]string{"outcome"},
	)

	FacturePaymentAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "factures_payment_amount_total",
			Help: "Sum of amounts recorded against invoices",
		},
	)

	DocumentsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "documents_uploaded_total",
			Help: "Uploaded documents, by owner kind",
		},
		[]string{"owner"},
	)

	PermissionDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "permission_denied_total",
			Help: "Requests refused by the page permission check",
		},
		[]string{"page", "action"},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "db_pool_connections",
			Help: "pgx pool connections by state",
		},
		[]string{"state"},
	)
)
