package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// CheckoutMetrics records checkout outcomes.
type CheckoutMetrics struct {
	created    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	orderValue *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders created by checkout.",
	}, []string{"currency", "payment"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkout attempts rejected or failed, by reason.",
	}, []string{"reason"})
	orderValue := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_order_value",
		Help:    "Order totals in the order currency.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 25000},
	}, []string{"currency"})
	reg.MustRegister(created, failures, orderValue)
	return &CheckoutMetrics{
		created:    created,
		failures:   failures,
		orderValue: orderValue,
	}
}

// ObserveOrder counts a created order and records its total.
func (c *CheckoutMetrics) ObserveOrder(currency, payment string, total decimal.Decimal) {
	if c == nil || c.created == nil {
		return
	}
	currency = normalizeLabel(currency)
	c.created.WithLabelValues(currency, normalizeLabel(payment)).Inc()
	c.orderValue.WithLabelValues(currency).Observe(total.InexactFloat64())
}

// IncFailure counts a failed checkout under reason.
func (c *CheckoutMetrics) IncFailure(reason string) {
	if c == nil || c.failures == nil {
		return
	}
	c.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
