package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MiningCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mining_credits_total",
			Help: "Ledger credits written by the accrual scheduler",
		},
	)
	MiningCreditDuplicates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mining_credit_duplicates_total",
			Help: "Accrual credits skipped because the cycle was already credited",
		},
	)
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mining_active_sessions",
			Help: "Currently active mining sessions",
		},
	)
	SchedulerTickSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "accrual_tick_duration_seconds",
			Help:    "Wall time of one accrual scheduler pass over all active sessions",
			Buckets: prometheus.DefBuckets,
		},
	)
	PaymentsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crypto_payments_submitted_total",
			Help: "Crypto payments accepted for verification",
		},
	)
	PaymentOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_payment_outcomes_total",
			Help: "Terminal crypto payment outcomes",
		},
		[]string{"outcome"},
	)
	WithdrawalsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "withdrawals_created_total",
			Help: "Withdrawal requests accepted and reserved",
		},
	)
	InvariantViolations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invariant_violations_total",
			Help: "Detected breaches of the ledger/session invariants",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MiningCredits,
		MiningCreditDuplicates,
		ActiveSessions,
		SchedulerTickSeconds,
		PaymentsSubmitted,
		PaymentOutcomes,
		WithdrawalsCreated,
		InvariantViolations,
	)
}
