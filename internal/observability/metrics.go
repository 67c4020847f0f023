package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	movements        *prometheus.CounterVec
	movedQuantity    *prometheus.CounterVec
	invoicesIssued   prometheus.Counter
	invoicedAmount   prometheus.Counter
	invoicesDeleted  prometheus.Counter
	paymentsApplied  prometheus.Counter
	paymentsReceived prometheus.Counter
}

// NewMetrics initialises the registry with HTTP and ledger collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "warehouse_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "warehouse_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	m := &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_inventory_transactions_total",
			Help: "Committed stock movements by type.",
		}, []string{"type"}),
		movedQuantity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warehouse_inventory_quantity_total",
			Help: "Quantity moved by committed stock movements, by type.",
		}, []string{"type"}),
		invoicesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warehouse_invoices_issued_total",
			Help: "Invoices issued.",
		}),
		invoicedAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warehouse_invoiced_amount_total",
			Help: "Sum of issued invoice totals including VAT.",
		}),
		invoicesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warehouse_invoices_deleted_total",
			Help: "Invoices deleted.",
		}),
		paymentsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warehouse_payments_total",
			Help: "Payments recorded against invoices.",
		}),
		paymentsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warehouse_payment_amount_total",
			Help: "Sum of recorded payment amounts.",
		}),
	}
	registry.MustRegister(requests, duration,
		m.movements, m.movedQuantity,
		m.invoicesIssued, m.invoicedAmount, m.invoicesDeleted,
		m.paymentsApplied, m.paymentsReceived,
	)
	return m
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records count and latency for every HTTP request.
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

// Registerer exposes the registry for custom collectors.
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
