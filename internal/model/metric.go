package model

import (
	"math"
	"time"
)

// Clock supplies timestamps so samples and alert transitions stay
// deterministic under test.
type Clock func() time.Time

// MetricSample is a single timestamped reading. It is immutable after
// construction; two samples with identical fields are still distinct
// events, so batches preserve insertion order.
type MetricSample struct {
	name      string
	value     float64
	unit      string
	timestamp time.Time
}

// NewMetricSample validates and builds a sample. A zero `at` defaults
// to the current time.
func NewMetricSample(name string, value float64, unit string, at time.Time) (MetricSample, error) {
	if name == "" {
		return MetricSample{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if unit == "" {
		return MetricSample{}, &ValidationError{Field: "unit", Reason: "must not be empty"}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MetricSample{}, &ValidationError{Field: "value", Reason: "must be finite"}
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return MetricSample{name: name, value: value, unit: unit, timestamp: at.UTC()}, nil
}

func (m MetricSample) Name() string         { return m.name }
func (m MetricSample) Value() float64       { return m.value }
func (m MetricSample) Unit() string         { return m.unit }
func (m MetricSample) Timestamp() time.Time { return m.timestamp }

// SamplePayload is the canonical serialized form handed to sinks.
type SamplePayload struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp"`
}

func (m MetricSample) Payload() SamplePayload {
	return SamplePayload{
		Name:      m.name,
		Value:     m.value,
		Unit:      m.unit,
		Timestamp: m.timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// SamplePayloads serializes a batch, preserving order.
func SamplePayloads(samples []MetricSample) []SamplePayload {
	if len(samples) == 0 {
		return nil
	}
	out := make([]SamplePayload, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Payload())
	}
	return out
}
