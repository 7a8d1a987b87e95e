// Package sink delivers serialized samples and alert events to
// external consumers: storage, transmission or notification backends.
package sink

import (
	"context"
	"fmt"

	"skywatch-agent/internal/model"
)

// Sink consumes serialized batches. Within one tick the scheduler
// always writes samples before alerts so a consumer can correlate an
// alert with the readings that caused it.
type Sink interface {
	WriteSamples(ctx context.Context, batch []model.SamplePayload) error
	WriteAlerts(ctx context.Context, batch []model.AlertPayload) error
	Close(ctx context.Context) error
}

// SinkError reports a delivery failure from one named sink. It is
// surfaced to the caller but never aborts the tick or other sinks.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }

func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Sink: name, Err: err}
}
