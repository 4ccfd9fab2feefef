package observability

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	OperationsTotal *prometheus.CounterVec   // op, result=ok|<error code>
	OpLatencyMS     *prometheus.HistogramVec // op

	TotalDeposited prometheus.Gauge
	TotalLent      prometheus.Gauge
	ActiveLoans    prometheus.Gauge

	RewardMintFailures prometheus.Counter
	Rollbacks          *prometheus.CounterVec // op
	KeeperLiquidations prometheus.Counter

	ActivityRecorded *prometheus.CounterVec // result=ok|dropped|error
}

// NewMetrics builds the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_pool_operations_total",
				Help: "Pool operations by result",
			},
			[]string{"op", "result"},
		),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lending_pool_op_latency_ms",
				Help:    "Latency of pool operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"op"},
		),
		TotalDeposited: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lending_pool_total_deposited",
			Help: "Total deposited liquidity including accrued interest",
		}),
		TotalLent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lending_pool_total_lent",
			Help: "Outstanding principal",
		}),
		ActiveLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lending_pool_active_loans",
			Help: "Loans opened minus loans settled since process start",
		}),
		RewardMintFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lending_pool_reward_mint_failures_total",
			Help: "Reward mints that failed after an on-time repayment",
		}),
		Rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_pool_rollbacks_total",
				Help: "Committed state restored after a failed outbound transfer",
			},
			[]string{"op"},
		),
		KeeperLiquidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lending_keeper_liquidations_total",
			Help: "Defaulted loans liquidated by the keeper",
		}),
		ActivityRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lending_activity_events_total",
				Help: "Pool events handled by the activity journal",
			},
			[]string{"result"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.OperationsTotal,
			m.OpLatencyMS,
			m.TotalDeposited,
			m.TotalLent,
			m.ActiveLoans,
			m.RewardMintFailures,
			m.Rollbacks,
			m.KeeperLiquidations,
			m.ActivityRecorded,
		)
	}

	return m
}
