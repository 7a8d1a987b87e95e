package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdRuleMatches(t *testing.T) {
	cases := []struct {
		comparison Comparison
		threshold  float64
		value      float64
		want       bool
	}{
		{CompareGT, 90, 95, true},
		{CompareGT, 90, 90, false},
		{CompareGT, 90, 50, false},
		{CompareLT, 10, 5, true},
		{CompareLT, 10, 10, false},
		// exact equality satisfies the gte/lte bounds
		{CompareGTE, 90, 90, true},
		{CompareGTE, 90, 89.999, false},
		{CompareLTE, 10, 10, true},
		{CompareLTE, 10, 10.001, false},
	}
	for _, tc := range cases {
		rule := ThresholdRule{MetricName: "m", Comparison: tc.comparison, Threshold: tc.threshold, Severity: SeverityWarning}
		assert.Equal(t, tc.want, rule.Matches(tc.value),
			"value %v %s %v", tc.value, tc.comparison, tc.threshold)
	}
}

func TestThresholdRuleValidate(t *testing.T) {
	valid := ThresholdRule{MetricName: "cpu_usage_percent", Comparison: CompareGT, Threshold: 90, Severity: SeverityCritical}
	assert.NoError(t, valid.Validate())

	missingMetric := valid
	missingMetric.MetricName = ""
	assert.Error(t, missingMetric.Validate())

	badComparison := valid
	badComparison.Comparison = "between"
	assert.Error(t, badComparison.Validate())

	badSeverity := valid
	badSeverity.Severity = "fatal"
	assert.Error(t, badSeverity.Validate())
}
