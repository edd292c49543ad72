// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics bundles the registry and the collectors the server updates.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestDuration *prometheus.HistogramVec
	OrdersCreated   prometheus.Counter
	OrdersFailed    *prometheus.CounterVec
	StockDecrements prometheus.Counter
}

// New creates a registry with Go and process collectors plus the
// application collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopsathi",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopsathi",
			Name:      "orders_created_total",
			Help:      "Orders committed.",
		}),
		OrdersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopsathi",
			Name:      "orders_failed_total",
			Help:      "Order attempts that were rejected or rolled back.",
		}, []string{"reason"}),
		StockDecrements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shopsathi",
			Name:      "stock_decrements_total",
			Help:      "Product stock updates issued by committed orders.",
		}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.OrdersCreated,
		m.OrdersFailed,
		m.StockDecrements,
	)
	return m
}
