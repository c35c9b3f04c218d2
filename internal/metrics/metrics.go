// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pottery_store"

// Outcome labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultDeclined = "declined"
	ResultError    = "error"
)

// Metrics groups the application's collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	checkouts     *prometheus.CounterVec
	payments      *prometheus.CounterVec
	cancellations prometheus.Counter
	refunded      prometheus.Counter
	uploadedRows  *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "checkouts_total",
			Help: "Checkout attempts by result.",
		}, []string{"result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_total",
			Help: "Payment attempts by gateway and result.",
		}, []string{"gateway", "result"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "order_cancellations_total",
			Help: "Orders cancelled by an admin.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "refunded_amount_total",
			Help: "Sum of refund amounts recorded.",
		}),
		uploadedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "bulk_upload_rows_total",
			Help: "Bulk upload rows by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.checkouts,
		m.payments,
		m.cancellations,
		m.refunded,
		m.uploadedRows,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Checkout records a checkout outcome.
func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(result).Inc()
}

// Payment records a payment outcome for a gateway.
func (m *Metrics) Payment(gateway, result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(gateway, result).Inc()
}

// Cancellation records a cancelled order and its refund amount.
func (m *Metrics) Cancellation(refundAmount float64) {
	if m == nil {
		return
	}
	m.cancellations.Inc()
	m.refunded.Add(refundAmount)
}

// UploadRows records bulk upload row counts.
func (m *Metrics) UploadRows(created, failed int) {
	if m == nil {
		return
	}
	m.uploadedRows.WithLabelValues(ResultSuccess).Add(float64(created))
	m.uploadedRows.WithLabelValues(ResultRejected).Add(float64(failed))
}
