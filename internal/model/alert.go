package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertKey deduplicates alerts: at most one open alert exists per key
// at any time.
type AlertKey struct {
	ResourceID string
	MetricName string
}

// Alert records a threshold breach for one (resource, metric) pair.
// CurrentValue stays at the value that triggered the alert; later
// breaching samples do not update an open alert.
type Alert struct {
	ResourceID   string
	MetricName   string
	Threshold    float64
	CurrentValue float64
	Severity     Severity
	Timestamp    time.Time
	Resolved     bool
}

func (a Alert) Key() AlertKey {
	return AlertKey{ResourceID: a.ResourceID, MetricName: a.MetricName}
}

// AlertEvent is one emitted transition: a newly opened alert
// (Resolved=false) or its resolution (Resolved=true). The ID ties the
// event to log lines and sink records; it is not part of the canonical
// payload.
type AlertEvent struct {
	ID string
	Alert
}

func NewAlertEvent(a Alert) AlertEvent {
	return AlertEvent{ID: uuid.NewString(), Alert: a}
}

// AlertPayload is the canonical serialized form handed to sinks.
type AlertPayload struct {
	ResourceID   string  `json:"resource_id"`
	MetricName   string  `json:"metric_name"`
	Threshold    float64 `json:"threshold"`
	CurrentValue float64 `json:"current_value"`
	Severity     string  `json:"severity"`
	Timestamp    string  `json:"timestamp"`
	Resolved     bool    `json:"resolved"`
}

func (a Alert) Payload() AlertPayload {
	return AlertPayload{
		ResourceID:   a.ResourceID,
		MetricName:   a.MetricName,
		Threshold:    a.Threshold,
		CurrentValue: a.CurrentValue,
		Severity:     string(a.Severity),
		Timestamp:    a.Timestamp.UTC().Format(time.RFC3339Nano),
		Resolved:     a.Resolved,
	}
}

// AlertPayloads serializes a batch of events, preserving order.
func AlertPayloads(events []AlertEvent) []AlertPayload {
	if len(events) == 0 {
		return nil
	}
	out := make([]AlertPayload, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Payload())
	}
	return out
}
