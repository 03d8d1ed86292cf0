// Package metrics exposes run results as Prometheus metrics.
//
// A Collector owns its registry instead of using the global one, so tests
// and concurrent runs in one process do not share counters.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/runner"
)

const Namespace = "orchard"

// Test result label values.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Collector counts test outcomes for one suite.
type Collector struct {
	suite    string
	registry *prometheus.Registry

	testsTotal   *prometheus.CounterVec
	skipsTotal   *prometheus.CounterVec
	timeouts     *prometheus.CounterVec
	testDuration *prometheus.HistogramVec

	runTests    *prometheus.GaugeVec
	runDuration *prometheus.GaugeVec
}

// NewCollector registers the orchard metrics on a fresh registry. suite
// labels every series.
func NewCollector(suite string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		suite:    suite,
		registry: reg,

		testsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_total",
			Help:      "Count of executed or skipped tests by status",
		}, []string{"suite", "status"}),

		skipsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "skips_total",
			Help:      "Count of skipped tests by reason",
		}, []string{"suite", "reason"}),

		timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "timeouts_total",
			Help:      "Count of tests that failed by exceeding their timeout",
		}, []string{"suite"}),

		testDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "test_duration_seconds",
			Help:      "Duration of executed tests, setup hooks included",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"suite", "status"}),

		runTests: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_tests",
			Help:      "Test counts of the last completed run",
		}, []string{"suite", "status"}),

		runDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Summed test time of the last completed run",
		}, []string{"suite"}),
	}
}

// Registry returns the registry the metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Sink returns c as an events.Sink.
func (c *Collector) Sink() events.Sink {
	return events.Adapt(c)
}

// Handle updates the counters from a lifecycle event. Events other than
// test outcomes are ignored.
func (c *Collector) Handle(e events.Event) {
	switch e.Type {
	case events.TypeTestPassed:
		c.observe(StatusPassed, e.Elapsed)
	case events.TypeTestFailed:
		c.observe(StatusFailed, e.Elapsed)
		if runner.IsTimeout(e.Err) {
			c.timeouts.WithLabelValues(c.suite).Inc()
		}
	case events.TypeTestSkipped:
		c.testsTotal.WithLabelValues(c.suite, StatusSkipped).Inc()
		c.skipsTotal.WithLabelValues(c.suite, e.Reason).Inc()
	}
}

func (c *Collector) observe(status string, elapsed time.Duration) {
	c.testsTotal.WithLabelValues(c.suite, status).Inc()
	c.testDuration.WithLabelValues(c.suite, status).Observe(elapsed.Seconds())
}

// RecordSummary publishes the folded result of a finished run.
func (c *Collector) RecordSummary(s runner.Summary) {
	slog.Debug("metric set", "m", "run_tests", "suite", c.suite, "summary", s.String())
	c.runTests.WithLabelValues(c.suite, "total").Set(float64(s.Total))
	c.runTests.WithLabelValues(c.suite, StatusPassed).Set(float64(s.Passed))
	c.runTests.WithLabelValues(c.suite, StatusFailed).Set(float64(s.Failed))
	c.runTests.WithLabelValues(c.suite, StatusSkipped).Set(float64(s.Skipped))
	c.runDuration.WithLabelValues(c.suite).Set(s.Elapsed.Seconds())
}

// WriteTextfile writes every metric in the text exposition format, for the
// node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
