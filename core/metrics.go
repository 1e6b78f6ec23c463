package core

import "github.com/prometheus/client_golang/prometheus"

// processorMetrics mirrors the teacher's blockExecutionTimer-style
// instrumentation, reimplemented against the Prometheus client the rest of
// the retrieval pack converges on. A nil *processorMetrics is valid and
// records nothing.
type processorMetrics struct {
	blocksProcessed prometheus.Counter
	batchRollbacks  *prometheus.CounterVec
	blockExecTime   prometheus.Histogram
}

func newProcessorMetrics(reg prometheus.Registerer) *processorMetrics {
	m := &processorMetrics{
		blocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "execore",
			Subsystem: "core",
			Name:      "blocks_processed_total",
			Help:      "Number of blocks that completed the single-block pipeline without error, whether or not the batch was later committed.",
		}),
		batchRollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "execore",
			Subsystem: "core",
			Name:      "batch_rollbacks_total",
			Help:      "Number of batch rollbacks, labeled by reason.",
		}, []string{"reason"}),
		blockExecTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "execore",
			Subsystem: "core",
			Name:      "block_execution_seconds",
			Help:      "Wall-clock time spent in the single-block pipeline.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.blocksProcessed, m.batchRollbacks, m.blockExecTime)
	}
	return m
}

func (m *processorMetrics) observeBlock(seconds float64) {
	if m == nil {
		return
	}
	m.blocksProcessed.Inc()
	m.blockExecTime.Observe(seconds)
}

func (m *processorMetrics) observeRollback(reason string) {
	if m == nil {
		return
	}
	m.batchRollbacks.WithLabelValues(reason).Inc()
}
