package automerge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/praetorius/dependamerge/internal/githubclt"
)

const metricNamespace = "dependamerge"

const (
	processedPRsMetricName  = "processed_pull_requests_total"
	mergeAttemptsMetricName = "merge_attempts_total"
	rebaseRunsMetricName    = "conflict_resolutions_total"
)

const (
	resultLabel   = "result"
	strategyLabel = "strategy"
)

type metricCollector struct {
	processedPRs  *prometheus.CounterVec
	mergeAttempts *prometheus.CounterVec
	rebaseRuns    *prometheus.CounterVec
}

var metrics = newMetricCollector()

func newMetricCollector() *metricCollector {
	return &metricCollector{
		processedPRs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      processedPRsMetricName,
				Help:      "count of processed pull requests per batch result",
			},
			[]string{resultLabel},
		),
		mergeAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      mergeAttemptsMetricName,
				Help:      "count of merge attempts per strategy and result",
			},
			[]string{strategyLabel, resultLabel},
		),
		rebaseRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricNamespace,
				Name:      rebaseRunsMetricName,
				Help:      "count of conflict resolution runs per result",
			},
			[]string{resultLabel},
		),
	}
}

func (m *metricCollector) processedPR(result BatchResult) {
	m.processedPRs.With(prometheus.Labels{resultLabel: result.String()}).Inc()
}

func (m *metricCollector) mergeAttemptSucceeded(strategy githubclt.MergeStrategy) {
	m.mergeAttempts.With(prometheus.Labels{
		strategyLabel: string(strategy),
		resultLabel:   "success",
	}).Inc()
}

func (m *metricCollector) mergeAttemptFailed(strategy githubclt.MergeStrategy) {
	m.mergeAttempts.With(prometheus.Labels{
		strategyLabel: string(strategy),
		resultLabel:   "failure",
	}).Inc()
}

func (m *metricCollector) rebaseRun(succeeded bool) {
	result := "success"
	if !succeeded {
		result = "failure"
	}

	m.rebaseRuns.With(prometheus.Labels{resultLabel: result}).Inc()
}
