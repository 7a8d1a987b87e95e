package sink

import (
	"context"
	"errors"
	"log/slog"

	"skywatch-agent/internal/model"
)

// Multi fans a batch out to every configured sink. A failing sink is
// logged and does not stop delivery to the others; the joined error is
// returned for the caller's accounting.
type Multi struct {
	logger *slog.Logger
	sinks  []Sink
}

func NewMulti(logger *slog.Logger, sinks ...Sink) *Multi {
	return &Multi{logger: logger, sinks: sinks}
}

func (m *Multi) WriteSamples(ctx context.Context, batch []model.SamplePayload) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteSamples(ctx, batch); err != nil {
			m.logger.Warn("sample delivery failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) WriteAlerts(ctx context.Context, batch []model.AlertPayload) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteAlerts(ctx, batch); err != nil {
			m.logger.Warn("alert delivery failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
