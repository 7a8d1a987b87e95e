package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skywatch-agent/internal/model"
)

func testClock(start time.Time) model.Clock {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func mustSample(t *testing.T, name string, value float64, at time.Time) model.MetricSample {
	t.Helper()
	s, err := model.NewMetricSample(name, value, "percent", at)
	require.NoError(t, err)
	return s
}

func TestEvaluateFireAndResolveSequence(t *testing.T) {
	start := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(testClock(start))
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityCritical},
	}

	// tick values [50, 95, 92, 80]: new at tick 2, resolved at tick 4
	var events [][]model.AlertEvent
	for i, v := range []float64{50, 95, 92, 80} {
		at := start.Add(time.Duration(i) * time.Minute)
		events = append(events, engine.Evaluate("vm-1", []model.MetricSample{mustSample(t, "cpu", v, at)}, rules))
	}

	assert.Empty(t, events[0])

	require.Len(t, events[1], 1)
	fired := events[1][0]
	assert.False(t, fired.Resolved)
	assert.Equal(t, 95.0, fired.CurrentValue)
	assert.Equal(t, 90.0, fired.Threshold)
	assert.Equal(t, model.SeverityCritical, fired.Severity)
	assert.Equal(t, 1, engine.OpenCount())

	// still breaching: duplicate suppressed, open alert untouched
	assert.Empty(t, events[2])
	open := engine.OpenAlerts()
	require.Len(t, open, 1)
	assert.Equal(t, 95.0, open[0].CurrentValue)

	require.Len(t, events[3], 1)
	resolved := events[3][0]
	assert.True(t, resolved.Resolved)
	assert.Equal(t, 95.0, resolved.CurrentValue)
	assert.True(t, resolved.Timestamp.After(fired.Timestamp))
	assert.Equal(t, 0, engine.OpenCount())
}

func TestEvaluateIdempotentOnRepeatedBreach(t *testing.T) {
	engine := NewEngine(nil)
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityWarning},
	}
	sample := mustSample(t, "cpu", 95, time.Now().UTC())

	first := engine.Evaluate("vm-1", []model.MetricSample{sample}, rules)
	second := engine.Evaluate("vm-1", []model.MetricSample{sample}, rules)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, 1, engine.OpenCount())
}

func TestEvaluateMissingSampleIsSilent(t *testing.T) {
	engine := NewEngine(nil)
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityWarning},
	}

	// open an alert, then evaluate a cycle with no cpu sample at all
	engine.Evaluate("vm-1", []model.MetricSample{mustSample(t, "cpu", 95, time.Now().UTC())}, rules)
	events := engine.Evaluate("vm-1", []model.MetricSample{mustSample(t, "memory", 10, time.Now().UTC())}, rules)

	// absence of data neither fires nor resolves
	assert.Empty(t, events)
	assert.Equal(t, 1, engine.OpenCount())
}

func TestEvaluateKeysAreIndependentPerResource(t *testing.T) {
	engine := NewEngine(nil)
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityWarning},
	}
	breach := []model.MetricSample{mustSample(t, "cpu", 99, time.Now().UTC())}

	assert.Len(t, engine.Evaluate("vm-1", breach, rules), 1)
	assert.Len(t, engine.Evaluate("vm-2", breach, rules), 1)
	assert.Equal(t, 2, engine.OpenCount())
}

func TestEvaluateFirstRuleOwnsSharedMetricKey(t *testing.T) {
	engine := NewEngine(nil)
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityCritical},
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 70, Severity: model.SeverityWarning},
	}

	// 80 breaches only the second rule, but the first rule owns the key
	// for the cycle, so nothing fires.
	events := engine.Evaluate("vm-1", []model.MetricSample{mustSample(t, "cpu", 80, time.Now().UTC())}, rules)
	assert.Empty(t, events)

	// 95 breaches the first rule: exactly one open alert for the key.
	events = engine.Evaluate("vm-1", []model.MetricSample{mustSample(t, "cpu", 95, time.Now().UTC())}, rules)
	require.Len(t, events, 1)
	assert.Equal(t, model.SeverityCritical, events[0].Severity)
	assert.Equal(t, 1, engine.OpenCount())
}

func TestEvaluateUsesMostRecentSample(t *testing.T) {
	engine := NewEngine(nil)
	rules := []model.ThresholdRule{
		{MetricName: "cpu", Comparison: model.CompareGT, Threshold: 90, Severity: model.SeverityWarning},
	}
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// older breaching sample followed by a newer calm one: no event
	events := engine.Evaluate("vm-1", []model.MetricSample{
		mustSample(t, "cpu", 99, base),
		mustSample(t, "cpu", 50, base.Add(time.Second)),
	}, rules)
	assert.Empty(t, events)
	assert.Equal(t, 0, engine.OpenCount())
}
