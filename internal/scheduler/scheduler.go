// Package scheduler drives the periodic collection and evaluation
// cycle.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"skywatch-agent/internal/alerting"
	"skywatch-agent/internal/model"
	"skywatch-agent/internal/monitor"
	"skywatch-agent/internal/sink"
)

// Target binds one resource to its monitor and threshold rules.
// Timeout overrides the scheduler-wide collect timeout when positive.
type Target struct {
	Resource *model.CloudResource
	Monitor  monitor.ResourceMonitor
	Rules    []model.ThresholdRule
	Timeout  time.Duration
}

// TickSummary describes one completed cycle.
type TickSummary struct {
	At       time.Time
	Samples  int
	Fired    int
	Resolved int
	Failures int
}

// Scheduler runs a fixed-interval loop. Collection calls within one
// tick run concurrently since each touches only its own resource;
// evaluation is serialized by the shared engine, and delivery goes
// through the sink with samples before alerts.
type Scheduler struct {
	logger         *slog.Logger
	engine         *alerting.Engine
	out            sink.Sink
	targets        []Target
	interval       time.Duration
	collectTimeout time.Duration
	clock          model.Clock
	observer       func(TickSummary)
}

func New(
	logger *slog.Logger,
	engine *alerting.Engine,
	out sink.Sink,
	targets []Target,
	interval, collectTimeout time.Duration,
	clock model.Clock,
	observer func(TickSummary),
) *Scheduler {
	if collectTimeout <= 0 {
		collectTimeout = 10 * time.Second
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	if observer == nil {
		observer = func(TickSummary) {}
	}
	return &Scheduler{
		logger:         logger,
		engine:         engine,
		out:            out,
		targets:        targets,
		interval:       interval,
		collectTimeout: collectTimeout,
		clock:          clock,
		observer:       observer,
	}
}

// Run ticks until ctx is canceled. A tick in flight always finishes:
// cancellation stops scheduling further ticks, not the current one.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.observer(s.Tick(ctx))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.observer(s.Tick(ctx))
		}
	}
}

// Tick runs one full collect → evaluate → deliver cycle.
func (s *Scheduler) Tick(ctx context.Context) TickSummary {
	type result struct {
		samples []model.MetricSample
		err     error
	}
	results := make([]result, len(s.targets))

	var g errgroup.Group
	for i, t := range s.targets {
		i, t := i, t
		g.Go(func() error {
			timeout := s.collectTimeout
			if t.Timeout > 0 {
				timeout = t.Timeout
			}
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			samples, err := t.Monitor.Collect(cctx)
			results[i] = result{
				samples: samples,
				err:     monitor.WrapCollectErr(t.Resource.ID, err),
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := TickSummary{At: s.clock()}
	var samplePayloads []model.SamplePayload
	var alertPayloads []model.AlertPayload
	for i, t := range s.targets {
		r := results[i]
		if r.err != nil {
			// Failed collection contributes zero samples and must not
			// touch engine state: missing data is not alertable here.
			t.Resource.SetStatus(model.StatusUnhealthy)
			s.logger.Warn("collection failed",
				"resource_id", t.Resource.ID,
				"resource_type", t.Resource.Type,
				"error", r.err,
			)
			summary.Failures++
			continue
		}
		t.Resource.RecordSamples(r.samples)
		t.Resource.SetStatus(t.Monitor.HealthStatus())
		summary.Samples += len(r.samples)

		events := s.engine.Evaluate(t.Resource.ID, r.samples, t.Rules)
		for _, ev := range events {
			if ev.Resolved {
				summary.Resolved++
				s.logger.Info("alert resolved", "event_id", ev.ID,
					"resource_id", ev.ResourceID, "metric_name", ev.MetricName)
			} else {
				summary.Fired++
				s.logger.Warn("alert fired", "event_id", ev.ID,
					"resource_id", ev.ResourceID, "metric_name", ev.MetricName,
					"severity", ev.Severity, "current_value", ev.CurrentValue,
					"threshold", ev.Threshold)
			}
		}

		samplePayloads = append(samplePayloads, model.SamplePayloads(r.samples)...)
		alertPayloads = append(alertPayloads, model.AlertPayloads(events)...)
	}

	// Samples before alerts, always, so sinks can correlate.
	if len(samplePayloads) > 0 {
		if err := s.out.WriteSamples(ctx, samplePayloads); err != nil {
			s.logger.Warn("sample forwarding failed", "error", err)
		}
	}
	if len(alertPayloads) > 0 {
		if err := s.out.WriteAlerts(ctx, alertPayloads); err != nil {
			s.logger.Warn("alert forwarding failed", "error", err)
		}
	}
	return summary
}
