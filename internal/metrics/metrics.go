// Package metrics exposes prometheus collectors for the answering pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Answer outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeRejected   = "rejected"
	OutcomeRetrieval  = "retrieval_error"
	OutcomeGeneration = "generation_error"
	OutcomeTimeout    = "timeout"
)

// Metrics is safe to use as a nil pointer, in which case every call is a no-op.
type Metrics struct {
	answers    *prometheus.CounterVec
	duration   prometheus.Histogram
	confidence prometheus.Histogram
	chunks     prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docqa",
			Name:      "answers_total",
			Help:      "Answered questions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "answer_duration_seconds",
			Help:      "Time from question to answer, retrieval and generation included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docqa",
			Name:      "answer_confidence",
			Help:      "Mean retrieval similarity of successful answers.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "docqa",
			Name:      "index_chunks",
			Help:      "Number of chunks in the built index.",
		}),
	}
	for _, c := range []prometheus.Collector{m.answers, m.duration, m.confidence, m.chunks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveAnswer records one finished Answer call. Confidence is only recorded
// for successful answers.
func (m *Metrics) ObserveAnswer(outcome string, elapsed time.Duration, confidence float64) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
	if outcome == OutcomeOK {
		m.confidence.Observe(confidence)
	}
}

func (m *Metrics) SetIndexChunks(n int) {
	if m == nil {
		return
	}
	m.chunks.Set(float64(n))
}
