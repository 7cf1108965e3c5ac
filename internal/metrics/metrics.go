package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "parlor_ws_connections",
		Help: "Current number of active websocket sessions",
	})
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlor_messages_total",
		Help: "Total number of messages posted",
	})
	EditsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlor_edits_total",
		Help: "Total number of message edits and deletes",
	})
	VotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parlor_votes_total",
		Help: "Total number of vote toggles",
	}, []string{"votetype"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlor_rate_limited_total",
		Help: "Total number of actions rejected by the rate limiter",
	})
	StarboardRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "parlor_starboard_recomputes_total",
		Help: "Total number of starboard recomputations",
	})
)

func init() {
	prometheus.MustRegister(Connections, MessagesTotal, EditsTotal,
		VotesTotal, RateLimitedTotal, StarboardRecomputes)
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
