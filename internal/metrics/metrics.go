// Package metrics exposes Prometheus counters for checkout, payments, webhooks,
// notifications and the search cache. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Metrics holds the application collectors.
type Metrics struct {
	ordersPlaced      prometheus.Counter
	checkoutFailures  *prometheus.CounterVec
	paymentsInitiated *prometheus.CounterVec
	paymentsRecorded  *prometheus.CounterVec
	webhooks          *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	searchCache       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed by checkout.",
		}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkouts rejected or rolled back, by error code.",
		}, []string{"code"}),
		paymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_initiated_total",
			Help:      "Payment initiations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payment records written by provider and status.",
		}, []string{"provider", "status"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Webhook deliveries by provider and outcome.",
		}, []string{"provider", "outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification events by type and outcome.",
		}, []string{"type", "outcome"}),
		searchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_cache_requests_total",
			Help:      "Search cache lookups by cache and result.",
		}, []string{"cache", "result"}),
	}

	reg.MustRegister(
		m.ordersPlaced,
		m.checkoutFailures,
		m.paymentsInitiated,
		m.paymentsRecorded,
		m.webhooks,
		m.notifications,
		m.searchCache,
	)

	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) CheckoutFailed(code string) {
	if m == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(code).Inc()
}

func (m *Metrics) PaymentInitiated(provider, outcome string) {
	if m == nil {
		return
	}
	m.paymentsInitiated.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) PaymentRecorded(provider, status string) {
	if m == nil {
		return
	}
	m.paymentsRecorded.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) Webhook(provider, outcome string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Notification(eventType, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) SearchCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.searchCache.WithLabelValues(cache, result).Inc()
}
