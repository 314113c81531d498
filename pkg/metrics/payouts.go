package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// PayoutMetrics records commission distribution outcomes.
type PayoutMetrics struct {
	duration *prometheus.HistogramVec
	payouts  *prometheus.CounterVec
	amounts  *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	failures prometheus.Counter
}

// NewPayoutMetrics registers the payout metrics on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "commission_distribution_duration_seconds",
		Help:    "Duration of full commission distributions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	payouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_payouts_total",
		Help: "Executed commission payouts.",
	}, []string{"recipient_type", "commission_type"})
	amounts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_payout_amount_total",
		Help: "Sum of executed commission payout amounts.",
	}, []string{"recipient_type", "commission_type", "currency"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "commission_payouts_skipped_total",
		Help: "Payouts skipped because the recipient has no account in the order currency.",
	}, []string{"recipient_type"})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commission_distribution_failures_total",
		Help: "Commission distributions that rolled back.",
	})
	reg.MustRegister(duration, payouts, amounts, skipped, failures)
	return &PayoutMetrics{
		duration: duration,
		payouts:  payouts,
		amounts:  amounts,
		skipped:  skipped,
		failures: failures,
	}
}

// ObserveDistribution records a distribution attempt duration by outcome.
func (m *PayoutMetrics) ObserveDistribution(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncPayout counts one executed payout and its amount.
func (m *PayoutMetrics) IncPayout(recipientType, commissionType, currency string, amount decimal.Decimal) {
	if m == nil || m.payouts == nil {
		return
	}
	m.payouts.WithLabelValues(normalizeLabel(recipientType), normalizeLabel(commissionType)).Inc()
	value, _ := amount.Float64()
	m.amounts.WithLabelValues(normalizeLabel(recipientType), normalizeLabel(commissionType), normalizeLabel(currency)).Add(value)
}

// IncSkipped counts a payout skipped for a missing recipient account.
func (m *PayoutMetrics) IncSkipped(recipientType string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(recipientType)).Inc()
}

// IncFailure counts a rolled-back distribution.
func (m *PayoutMetrics) IncFailure() {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
