package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	WagersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wagers_placed_total",
			Help: "Wagers placed, by game",
		},
		[]string{"game"},
	)

	PayoutsMinor = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payouts_minor_units_total",
			Help: "Total payout credits in minor units",
		},
	)

	CrashRounds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crash_rounds_total",
			Help: "Crash rounds finished, by cause",
		},
		[]string{"cause"},
	)

	CrashCashouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crash_cashouts_total",
			Help: "Honored crash cash-outs",
		},
	)

	Withdrawals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_total",
			Help: "Withdrawal requests, by terminal status",
		},
		[]string{"status"},
	)

	LedgerRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_cas_retries_total",
			Help: "Account version CAS conflicts that forced a retry",
		},
	)
)

func Init() {
	prometheus.MustRegister(
		WagersPlaced,
		PayoutsMinor,
		CrashRounds,
		CrashCashouts,
		Withdrawals,
		LedgerRetries,
	)
}
