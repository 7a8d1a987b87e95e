package monitor

import (
	"context"
	"errors"
	"fmt"

	"skywatch-agent/internal/model"
)

// ResourceMonitor is the per-resource-type collection capability. The
// contract guarantees only the return shape, not how readings are
// obtained. Collect must honor ctx cancellation; the scheduler bounds
// every call with a timeout, so an unreachable provider surfaces as a
// CollectionError instead of a hang.
//
// A monitor is driven by one goroutine at a time.
type ResourceMonitor interface {
	Collect(ctx context.Context) ([]model.MetricSample, error)
	// HealthStatus returns the status computed from the latest
	// successful Collect. Health bands are internal to the monitor and
	// distinct from alerting threshold rules.
	HealthStatus() model.ResourceStatus
}

// CollectionError reports a failed or timed-out collection attempt.
type CollectionError struct {
	ResourceID string
	Timeout    bool
	Err        error
}

func (e *CollectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("collect %s: timed out: %v", e.ResourceID, e.Err)
	}
	return fmt.Sprintf("collect %s: %v", e.ResourceID, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// WrapCollectErr normalizes any collection failure into a
// CollectionError, flagging deadline overruns as timeouts.
func WrapCollectErr(resourceID string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CollectionError
	if errors.As(err, &ce) {
		return err
	}
	return &CollectionError{
		ResourceID: resourceID,
		Timeout:    errors.Is(err, context.DeadlineExceeded),
		Err:        err,
	}
}

// healthBand classifies a percentage-style reading into a status.
type healthBand struct {
	degraded  float64
	unhealthy float64
}

func (b healthBand) classify(v float64) model.ResourceStatus {
	switch {
	case v >= b.unhealthy:
		return model.StatusUnhealthy
	case v >= b.degraded:
		return model.StatusDegraded
	default:
		return model.StatusHealthy
	}
}

func worstStatus(a, b model.ResourceStatus) model.ResourceStatus {
	rank := func(s model.ResourceStatus) int {
		switch s {
		case model.StatusHealthy:
			return 1
		case model.StatusDegraded:
			return 2
		case model.StatusUnhealthy:
			return 3
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
