package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/orchard/internal/events"
	"github.com/roach88/orchard/internal/resolve"
	"github.com/roach88/orchard/internal/runner"
	"github.com/roach88/orchard/internal/tree"
)

func runSample(t *testing.T, c *Collector) runner.Summary {
	t.Helper()
	root, err := tree.Build("suite", func(b *tree.Builder) {
		b.It("passes", func(tree.TestInput) error { return nil })
		b.It("also passes", func(tree.TestInput) error { return nil })
		b.It("fails", func(tree.TestInput) error { return errors.New("boom") })
		b.It("times out", func(in tree.TestInput) error {
			<-in.Done()
			return nil
		}, tree.WithTimeout(5*time.Millisecond))
		b.It("skipped", func(tree.TestInput) error { return nil }, tree.Skip())
	})
	require.NoError(t, err)

	sum, err := runner.New(c.Sink()).RunAll(context.Background(), root)
	require.NoError(t, err)
	return sum
}

func TestCollector_CountsOutcomes(t *testing.T) {
	c := NewCollector("suite")
	runSample(t, c)

	assert.Equal(t, 2.0, value(t, c, "orchard_tests_total", "suite", "suite", "status", StatusPassed))
	assert.Equal(t, 2.0, value(t, c, "orchard_tests_total", "suite", "suite", "status", StatusFailed))
	assert.Equal(t, 1.0, value(t, c, "orchard_tests_total", "suite", "suite", "status", StatusSkipped))
	assert.Equal(t, 1.0, value(t, c, "orchard_skips_total", "suite", "suite", "reason", resolve.ReasonSkippedExplicitly))
	assert.Equal(t, 1.0, value(t, c, "orchard_timeouts_total", "suite", "suite"))

	// One histogram series per status that was observed.
	assert.Equal(t, 2, series(t, c, "orchard_test_duration_seconds"))
}

func TestCollector_IgnoresBoundaryEvents(t *testing.T) {
	c := NewCollector("suite")
	c.Handle(events.Event{Type: events.TypeTestStarting})
	c.Handle(events.Event{Type: events.TypeAfterSetupFinished})
	assert.Equal(t, 0, series(t, c, "orchard_tests_total"))
}

func TestCollector_RecordSummary(t *testing.T) {
	c := NewCollector("suite")
	sum := runSample(t, c)
	c.RecordSummary(sum)

	assert.Equal(t, 5.0, value(t, c, "orchard_run_tests", "suite", "suite", "status", "total"))
	assert.Equal(t, 2.0, value(t, c, "orchard_run_tests", "suite", "suite", "status", StatusPassed))
	assert.Equal(t, 2.0, value(t, c, "orchard_run_tests", "suite", "suite", "status", StatusFailed))
	assert.Equal(t, 1.0, value(t, c, "orchard_run_tests", "suite", "suite", "status", StatusSkipped))
	assert.Equal(t, sum.Elapsed.Seconds(), value(t, c, "orchard_run_duration_seconds", "suite", "suite"))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("a")
	b := NewCollector("b")
	runSample(t, a)
	assert.Equal(t, 0, series(t, b, "orchard_tests_total"))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector("suite")
	c.RecordSummary(runSample(t, c))

	path := filepath.Join(t.TempDir(), "orchard.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `orchard_tests_total{status="passed",suite="suite"} 2`)
	assert.Contains(t, text, `orchard_run_tests{status="total",suite="suite"} 5`)
	assert.Contains(t, text, "# TYPE orchard_test_duration_seconds histogram")
}

func TestCollector_WriteTextfileBadPath(t *testing.T) {
	c := NewCollector("suite")
	err := c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "orchard.prom"))
	assert.ErrorContains(t, err, "write metrics")
}

// value returns the counter or gauge value of the series of name whose
// labels match the given name/value pairs.
func value(t *testing.T, c *Collector, name string, labelPairs ...string) float64 {
	t.Helper()
	for _, m := range family(t, c, name) {
		if !hasLabels(m.GetLabel(), labelPairs) {
			continue
		}
		switch {
		case m.GetCounter() != nil:
			return m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("no %s series with labels %v", name, labelPairs)
	return 0
}

// series counts the series of the named metric family.
func series(t *testing.T, c *Collector, name string) int {
	t.Helper()
	return len(family(t, c, name))
}

func family(t *testing.T, c *Collector, name string) []*dto.Metric {
	t.Helper()
	mfs, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()
		}
	}
	return nil
}

func hasLabels(labels []*dto.LabelPair, pairs []string) bool {
	want := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		want[pairs[i]] = pairs[i+1]
	}
	matched := 0
	for _, l := range labels {
		if v, ok := want[l.GetName()]; ok {
			if v != l.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}
