package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JiraRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jira_extract_jira_requests_total",
			Help: "Total number of Jira REST requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jira_extract_fetch_duration_seconds",
			Help:    "Time taken by a full fetch (query, normalize, filter)",
			Buckets: prometheus.DefBuckets,
		},
	)

	RowsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jira_extract_rows_returned",
			Help:    "Rows left after the client-side filter chain",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
		},
	)

	RowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jira_extract_rows_skipped_total",
			Help: "Issues dropped by the normalizer because they could not be extracted",
		},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jira_extract_logins_total",
			Help: "Dashboard login attempts by outcome",
		},
		[]string{"outcome"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jira_extract_exports_total",
			Help: "Exports served by format",
		},
		[]string{"format"},
	)
)

// RecordJiraRequest counts one outbound Jira call.
func RecordJiraRequest(endpoint, outcome string) {
	JiraRequests.WithLabelValues(endpoint, outcome).Inc()
}
