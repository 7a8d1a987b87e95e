// Package alerting evaluates threshold rules against metric samples
// and maintains the open-alert state that deduplicates repeated
// firings.
package alerting

import (
	"sync"
	"time"

	"skywatch-agent/internal/model"
)

// Engine holds the process-wide open-alert map. The map starts empty,
// changes only through Evaluate, and is never persisted by the engine
// itself; durable alert history is a sink concern. Evaluate is
// serialized by the internal mutex, so one engine may be shared across
// concurrently collected resources.
type Engine struct {
	mu    sync.Mutex
	open  map[model.AlertKey]model.Alert
	clock model.Clock
}

func NewEngine(clock model.Clock) *Engine {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		open:  map[model.AlertKey]model.Alert{},
		clock: clock,
	}
}

// Evaluate applies the rules, in order, to the most recent sample per
// metric name and emits the resulting transitions:
//
//   - no open alert, predicate true  → new alert event, key opened
//   - open alert, predicate true     → nothing (duplicate suppressed,
//     the open alert keeps its triggering value)
//   - open alert, predicate false    → resolved event, key closed
//   - no open alert, predicate false → nothing
//
// A rule whose metric has no sample this cycle is skipped entirely:
// absence of data neither fires nor resolves. When several rules name
// the same metric, the first one in configured order owns the key for
// this cycle.
func (e *Engine) Evaluate(resourceID string, samples []model.MetricSample, rules []model.ThresholdRule) []model.AlertEvent {
	latest := latestByName(samples)

	e.mu.Lock()
	defer e.mu.Unlock()

	var events []model.AlertEvent
	seen := map[model.AlertKey]bool{}
	for _, rule := range rules {
		sample, ok := latest[rule.MetricName]
		if !ok {
			continue
		}
		key := model.AlertKey{ResourceID: resourceID, MetricName: rule.MetricName}
		if seen[key] {
			continue
		}
		seen[key] = true

		openAlert, isOpen := e.open[key]
		breached := rule.Matches(sample.Value())
		switch {
		case !isOpen && breached:
			a := model.Alert{
				ResourceID:   resourceID,
				MetricName:   rule.MetricName,
				Threshold:    rule.Threshold,
				CurrentValue: sample.Value(),
				Severity:     rule.Severity,
				Timestamp:    e.clock(),
			}
			e.open[key] = a
			events = append(events, model.NewAlertEvent(a))
		case isOpen && !breached:
			resolved := openAlert
			resolved.Resolved = true
			resolved.Timestamp = e.clock()
			delete(e.open, key)
			events = append(events, model.NewAlertEvent(resolved))
		}
	}
	return events
}

// OpenCount reports how many alerts are currently open.
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.open)
}

// OpenAlerts returns a snapshot of the open alerts.
func (e *Engine) OpenAlerts() []model.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Alert, 0, len(e.open))
	for _, a := range e.open {
		out = append(out, a)
	}
	return out
}

// latestByName keeps the newest sample per metric name. Batches are
// ordered oldest-first, so a later entry wins unless an explicit
// timestamp says otherwise.
func latestByName(samples []model.MetricSample) map[string]model.MetricSample {
	latest := map[string]model.MetricSample{}
	for _, s := range samples {
		cur, ok := latest[s.Name()]
		if !ok || !s.Timestamp().Before(cur.Timestamp()) {
			latest[s.Name()] = s
		}
	}
	return latest
}
