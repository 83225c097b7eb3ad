package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(sitesByStatus, aiEnhanceTotal)
}

var (
	sitesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sites_by_status",
			Help: "Current number of sites per lifecycle status.",
		},
		[]string{"status"},
	)

	aiEnhanceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_enhance_total",
			Help: "AI enhancement attempts, by result.",
		},
		[]string{"result"}, // 'ok', 'refunded', 'rate_limited'
	)
)

func SetSitesByStatus(status string, n int) {
	sitesByStatus.WithLabelValues(norm(status)).Set(float64(n))
}

func IncAIEnhance(result string) {
	aiEnhanceTotal.WithLabelValues(norm(result)).Inc()
}
