package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordVote("text", true)
	c.RecordVote("text", true)
	c.RecordVote("audio", false)
	c.RecordModel("audio", "lstm", 20*time.Millisecond, true)
	c.RecordModel("audio", "cnn", 10*time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.votes.WithLabelValues("text", "decided")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.votes.WithLabelValues("audio", "undetermined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.modelFailures.WithLabelValues("audio", "lstm")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.modelDuration))
}

func TestNewCollector_NilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(nil).RecordVote("video", true)
		NewCollector(nil).RecordVote("video", true)
	})
}
