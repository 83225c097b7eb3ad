package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		creditsDeductedTotal,
		creditsGrantedTotal,
		creditDenialsTotal,
		codesRedeemedTotal,
	)
}

var (
	creditsDeductedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_deducted_total",
			Help: "Total credits deducted from agent balances, by reason.",
		},
		[]string{"reason"},
	)

	creditsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_granted_total",
			Help: "Total credits granted to agent balances, by reason.",
		},
		[]string{"reason"},
	)

	creditDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credit_denials_total",
			Help: "Paid actions refused for insufficient balance, by reason.",
		},
		[]string{"reason"},
	)

	codesRedeemedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "codes_redeemed_total",
			Help: "Redemption codes successfully consumed.",
		},
	)
)

func AddCreditsDeducted(reason string, amount int) {
	creditsDeductedTotal.WithLabelValues(norm(reason)).Add(float64(amount))
}

func AddCreditsGranted(reason string, amount int) {
	creditsGrantedTotal.WithLabelValues(norm(reason)).Add(float64(amount))
}

func IncCreditDenial(reason string) {
	creditDenialsTotal.WithLabelValues(norm(reason)).Inc()
}

func IncCodeRedeemed() {
	codesRedeemedTotal.Inc()
}
