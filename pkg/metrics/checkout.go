package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeRejected      = "rejected"
	OutcomeStockConflict = "stock_conflict"
	OutcomeError         = "error"
)

// CheckoutMetrics records checkout attempts and their latency.
type CheckoutMetrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(attempts, duration)
	return &CheckoutMetrics{
		attempts: attempts,
		duration: duration,
	}
}

// Observe records one checkout attempt with its outcome and duration.
func (c *CheckoutMetrics) Observe(outcome string, duration time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.attempts.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
