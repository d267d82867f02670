// Package metrics exposes Prometheus collectors for the HTTP layer and for
// sale and catalog activity.
package metrics

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/sales"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Metrics owns a private registry so tests and multiple servers never collide
// on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	salesTotal          *prometheus.CounterVec
	salesRevenue        *prometheus.CounterVec
	unitsSold           prometheus.Counter
	statusChanges       *prometheus.CounterVec
	productEvents       *prometheus.CounterVec
}

// New creates the collectors under namespace and registers them together with
// the Go and process collectors.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		salesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "created_total",
			Help:      "Sales created, by order type and payment method.",
		}, []string{"order_type", "payment_method"}),
		salesRevenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "revenue_total",
			Help:      "Sum of created sale totals, by order type.",
		}, []string{"order_type"}),
		unitsSold: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "units_sold_total",
			Help:      "Product units removed from stock by created sales.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sales",
			Name:      "status_changes_total",
			Help:      "Sale status writes, by target status.",
		}, []string{"status"}),
		productEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "product_events_total",
			Help:      "Product create and update events.",
		}, []string{"event_type"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.salesTotal,
		m.salesRevenue,
		m.unitsSold,
		m.statusChanges,
		m.productEvents,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDB exports the connection pool statistics of db under dbName
func (m *Metrics) RegisterDB(db *sql.DB, dbName string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// EventTypes returns the domain events counted by Handle
func (m *Metrics) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCreated,
		sales.EventTypeSaleStatusChanged,
		catalog.EventTypeProductCreated,
		catalog.EventTypeProductUpdated,
	}
}

// Handle updates the counters for a domain event. Unknown events are ignored.
func (m *Metrics) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.SaleCreatedEvent:
		m.salesTotal.WithLabelValues(e.OrderType.String(), e.PaymentMethod.String()).Inc()
		m.salesRevenue.WithLabelValues(e.OrderType.String()).Add(e.Total.InexactFloat64())
		units := 0
		for _, item := range e.Items {
			units += item.Quantity
		}
		m.unitsSold.Add(float64(units))
	case *sales.SaleStatusChangedEvent:
		m.statusChanges.WithLabelValues(e.ToStatus.String()).Inc()
	case *catalog.ProductCreatedEvent, *catalog.ProductUpdatedEvent:
		m.productEvents.WithLabelValues(event.EventType()).Inc()
	}
	return nil
}

var _ shared.EventHandler = (*Metrics)(nil)
