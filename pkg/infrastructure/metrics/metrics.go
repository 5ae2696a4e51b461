// Package metrics counts session activity for Prometheus from published session events.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/packplan/pkg/infrastructure/events"
)

// Collector holds the session counters and implements events.EventHandler
type Collector struct {
	mutations   *prometheus.CounterVec
	inserted    *prometheus.CounterVec
	flushes     prometheus.Counter
	submissions *prometheus.CounterVec
	submitTime  *prometheus.HistogramVec
}

// NewCollector creates the collectors and registers them with reg
func NewCollector(namespace string, reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_mutations_total",
			Help:      "Session mutations by event type.",
		}, []string{"event"}),
		inserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weighing_records_inserted_total",
			Help:      "Weighing records inserted, by whether the recompute was deferred.",
		}, []string{"deferred"}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_flushes_total",
			Help:      "Deferred reconciliations settled.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions by session kind and outcome.",
		}, []string{"kind", "outcome"}),
		submitTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time spent storing a submission.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	for _, col := range []prometheus.Collector{c.mutations, c.inserted, c.flushes, c.submissions, c.submitTime} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return c, nil
}

var _ events.EventHandler = (*Collector)(nil)

func (c *Collector) CanHandle(eventType string) bool {
	for _, t := range events.AllSessionEvents {
		if t == eventType {
			return true
		}
	}
	return false
}

func (c *Collector) Handle(e events.Event) error {
	switch data := e.Data().(type) {
	case events.WeighingRecordsInserted:
		c.inserted.WithLabelValues(fmt.Sprint(data.Deferred)).Add(float64(len(data.RowKeys)))
	case events.ReconciliationFlushed:
		c.flushes.Inc()
	case events.SessionSubmitted:
		c.submissions.WithLabelValues(data.Kind, "ok").Inc()
		c.submitTime.WithLabelValues(data.Kind).Observe(data.Duration.Seconds())
	case events.SubmissionFailed:
		c.submissions.WithLabelValues(data.Kind, "failed").Inc()
	default:
		c.mutations.WithLabelValues(e.Type()).Inc()
	}
	return nil
}
