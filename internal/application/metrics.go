package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// remoteFetchTotal counts calls made to the GitHub source.
	// Labels: op ("labels", "issue", "issues", "details", "project_id", "project_items"),
	// result ("ok", "error").
	remoteFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuepulse_github_fetches_total",
		Help: "Total GitHub source calls by operation and result",
	}, []string{"op", "result"})

	// cacheLookupTotal counts cache reads that could have required a fetch.
	// Labels: kind ("issue", "labels", "project_id"), result ("hit", "miss").
	cacheLookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "issuepulse_cache_lookups_total",
		Help: "Total cache lookups by kind and result",
	}, []string{"kind", "result"})

	// hydrationSkippedTotal counts issues whose zero counts made a detail fetch unnecessary.
	hydrationSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "issuepulse_hydration_skipped_total",
		Help: "Issues that needed no detail fetch",
	})
)

func recordFetch(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	remoteFetchTotal.WithLabelValues(op, result).Inc()
}

func recordLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupTotal.WithLabelValues(kind, result).Inc()
}
