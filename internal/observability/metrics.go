package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	invoicesCreated   prometheus.Counter
	invoicedAmount    prometheus.Counter
	invoiceRejections *prometheus.CounterVec
	paymentsRecorded  prometheus.Counter
	paidAmount        prometheus.Counter
	statementsServed  *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbook_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockbook_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	m := &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockbook_invoices_created_total",
			Help: "Invoices persisted.",
		}),
		invoicedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockbook_invoiced_amount_total",
			Help: "Sum of persisted invoice totals.",
		}),
		invoiceRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbook_invoice_rejections_total",
			Help: "Invoice attempts rejected before persistence, by reason.",
		}, []string{"reason"}),
		paymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockbook_payments_recorded_total",
			Help: "Payments persisted.",
		}),
		paidAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockbook_paid_amount_total",
			Help: "Sum of persisted payment amounts.",
		}),
		statementsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockbook_statements_served_total",
			Help: "Client statements served, by source (cache or built).",
		}, []string{"source"}),
	}
	registry.MustRegister(
		requests, duration,
		m.invoicesCreated, m.invoicedAmount, m.invoiceRejections,
		m.paymentsRecorded, m.paidAmount, m.statementsServed,
	)
	return m
}

// InvoiceCreated counts a persisted invoice.
func (m *Metrics) InvoiceCreated(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.invoicesCreated.Inc()
	if total.IsPositive() {
		m.invoicedAmount.Add(total.InexactFloat64())
	}
}

// InvoiceRejected counts an invoice attempt that failed before persistence.
func (m *Metrics) InvoiceRejected(reason string) {
	if m == nil {
		return
	}
	m.invoiceRejections.WithLabelValues(reason).Inc()
}

// PaymentRecorded counts a persisted payment.
func (m *Metrics) PaymentRecorded(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.paymentsRecorded.Inc()
	if amount.IsPositive() {
		m.paidAmount.Add(amount.InexactFloat64())
	}
}

// StatementServed counts a statement read.
func (m *Metrics) StatementServed(source string) {
	if m == nil {
		return
	}
	m.statementsServed.WithLabelValues(source).Inc()
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
