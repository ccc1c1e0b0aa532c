// Package metrics exposes ensemble counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ensemble"

type Collector struct {
	votes         *prometheus.CounterVec
	modelFailures *prometheus.CounterVec
	modelDuration *prometheus.HistogramVec
}

// NewCollector registers the ensemble metrics on reg. A nil reg gives a
// collector whose metrics are never exported.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Collector{
		votes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Voting rounds by modality and outcome",
		}, []string{"modality", "outcome"}),
		modelFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_failures_total",
			Help:      "Model invocations that produced no vote",
		}, []string{"modality", "model"}),
		modelDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_duration_seconds",
			Help:      "Model invocation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"modality", "model"}),
	}
}

func (c *Collector) RecordVote(modality string, decided bool) {
	outcome := "decided"
	if !decided {
		outcome = "undetermined"
	}
	c.votes.WithLabelValues(modality, outcome).Inc()
}

func (c *Collector) RecordModel(modality, model string, d time.Duration, failed bool) {
	c.modelDuration.WithLabelValues(modality, model).Observe(d.Seconds())
	if failed {
		c.modelFailures.WithLabelValues(modality, model).Inc()
	}
}
