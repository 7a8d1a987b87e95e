package model

import "fmt"

type Comparison string

const (
	CompareGT  Comparison = "gt"
	CompareLT  Comparison = "lt"
	CompareGTE Comparison = "gte"
	CompareLTE Comparison = "lte"
)

func (c Comparison) Valid() bool {
	switch c {
	case CompareGT, CompareLT, CompareGTE, CompareLTE:
		return true
	}
	return false
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// ThresholdRule defines when a metric value should raise an alert.
// Rules are stateless and reusable across resources.
type ThresholdRule struct {
	MetricName string     `yaml:"metric" json:"metric_name"`
	Comparison Comparison `yaml:"comparison" json:"comparison"`
	Threshold  float64    `yaml:"threshold" json:"threshold"`
	Severity   Severity   `yaml:"severity" json:"severity"`
}

// Matches reports whether a value breaches the rule. Exact equality
// satisfies the gte/lte bounds.
func (r ThresholdRule) Matches(value float64) bool {
	switch r.Comparison {
	case CompareGT:
		return value > r.Threshold
	case CompareLT:
		return value < r.Threshold
	case CompareGTE:
		return value >= r.Threshold
	case CompareLTE:
		return value <= r.Threshold
	}
	return false
}

func (r ThresholdRule) Validate() error {
	if r.MetricName == "" {
		return &ValidationError{Field: "metric", Reason: "must not be empty"}
	}
	if !r.Comparison.Valid() {
		return &ValidationError{Field: "comparison", Reason: fmt.Sprintf("unknown comparison %q", r.Comparison)}
	}
	if !r.Severity.Valid() {
		return &ValidationError{Field: "severity", Reason: fmt.Sprintf("unknown severity %q", r.Severity)}
	}
	return nil
}
