package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BotUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "updates_total", Help: "Processed telegram updates",
	})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "handler_errors_total", Help: "Handler errors",
	})
	GradesSet = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "grades_set_total", Help: "Grade upserts",
	}, []string{"op"}) // op: insert|update
	TokensAccrued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "tokens_accrued_total", Help: "Token balance deltas applied (absolute value)",
	})
	Purchases = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "purchases_total", Help: "Reward purchases",
	})
	BonusesAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collegebot", Name: "first_completion_bonuses_total", Help: "First-completion bonuses awarded",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collegebot", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(BotUpdates, HandlerErrors, GradesSet, TokensAccrued, Purchases, BonusesAwarded, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
