package sink

import (
	"context"
	"log/slog"

	"skywatch-agent/internal/model"
)

// LogSink writes batches to the structured log. It is the default sink
// and needs no external backend.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	s.logger.Info("samples", "count", len(batch))
	for _, p := range batch {
		s.logger.Debug("sample", "name", p.Name, "value", p.Value, "unit", p.Unit, "timestamp", p.Timestamp)
	}
	return nil
}

func (s *LogSink) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	for _, p := range batch {
		s.logger.Warn("alert",
			"resource_id", p.ResourceID,
			"metric_name", p.MetricName,
			"severity", p.Severity,
			"threshold", p.Threshold,
			"current_value", p.CurrentValue,
			"resolved", p.Resolved,
			"timestamp", p.Timestamp,
		)
	}
	return nil
}

func (s *LogSink) Close(ctx context.Context) error { return nil }
