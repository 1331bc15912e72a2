// Package metrics records verification outcomes as Prometheus metrics and
// pushes them to a Pushgateway at the end of a batch run.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "vxverify"

// Recorder implements vx.Observer on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	rounds        *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	fetchErrors   prometheus.Counter
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_total",
				Help:      "rounds checked, by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "time spent fetching signed messages from the VX service",
				Buckets:   prometheus.ExponentialBuckets(0.025, 2, 9),
			},
		),
		fetchErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "fetches that returned an error, including missing records",
			},
		),
	}

	err := errors.Join(
		r.registry.Register(r.rounds),
		r.registry.Register(r.fetchDuration),
		r.registry.Register(r.fetchErrors),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ObserveRound counts one round outcome (a vx.Status or an error kind).
func (r *Recorder) ObserveRound(outcome string) {
	r.rounds.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one fetch.
func (r *Recorder) ObserveFetch(d time.Duration, err error) {
	r.fetchDuration.Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.Inc()
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends every metric to the Pushgateway at url under job, grouped by
// run id when one is given.
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return fmt.Errorf("pushgateway url is empty")
	}
	p := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}
