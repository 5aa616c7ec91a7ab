// Package metrics holds the Prometheus collectors of the summarization service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docsum"

var (
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_requests_total",
		Help:      "LLM calls by operation and outcome.",
	}, []string{"operation", "status"})

	LLMDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "LLM call latency by operation.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"operation"})

	ChunksSummarized = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_total",
		Help:      "Chunks submitted to the summarizer by outcome.",
	}, []string{"status"})

	ConvergenceRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "convergence_rounds",
		Help:      "Fan-out rounds needed until a summary fit the token budget.",
		Buckets:   prometheus.LinearBuckets(1, 1, 5),
	})

	RelayFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "relay_failures_total",
		Help:      "Answer batches that could not be relayed.",
	})
)

const (
	OpSummarize = "summarize"
	OpAnswer    = "answer"

	StatusOK    = "ok"
	StatusError = "error"
)

func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
