package monitor

import (
	"context"
	"errors"
	"net"
	"time"

	"skywatch-agent/internal/model"
)

const (
	MetricLatencyMs    = "latency_ms"
	MetricAvailability = "availability"
)

var endpointLatencyBand = healthBand{degraded: 250, unhealthy: 1000}

// EndpointMonitor probes a network endpoint with a TCP dial. A refused
// or failed dial is a successful probe observing a down endpoint
// (availability 0); only probe-infrastructure failures, ctx
// cancellation or the collect deadline, surface as CollectionError.
type EndpointMonitor struct {
	resourceID string
	address    string
	dialer     net.Dialer
	clock      model.Clock

	status model.ResourceStatus
}

func NewEndpointMonitor(resourceID, address string, clock model.Clock) *EndpointMonitor {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &EndpointMonitor{
		resourceID: resourceID,
		address:    address,
		clock:      clock,
		status:     model.StatusUnknown,
	}
}

func (m *EndpointMonitor) Collect(ctx context.Context) ([]model.MetricSample, error) {
	start := time.Now()
	conn, dialErr := m.dialer.DialContext(ctx, "tcp", m.address)
	latency := time.Since(start)
	if conn != nil {
		_ = conn.Close()
	}

	at := m.clock()
	if dialErr != nil {
		if ctx.Err() != nil || errors.Is(dialErr, context.DeadlineExceeded) {
			return nil, WrapCollectErr(m.resourceID, dialErr)
		}
		down, err := model.NewMetricSample(MetricAvailability, 0, "bool", at)
		if err != nil {
			return nil, WrapCollectErr(m.resourceID, err)
		}
		m.status = model.StatusUnhealthy
		return []model.MetricSample{down}, nil
	}

	latencyMs := float64(latency) / float64(time.Millisecond)
	latencySample, err := model.NewMetricSample(MetricLatencyMs, latencyMs, "ms", at)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}
	up, err := model.NewMetricSample(MetricAvailability, 1, "bool", at)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}

	m.status = endpointLatencyBand.classify(latencyMs)
	return []model.MetricSample{latencySample, up}, nil
}

func (m *EndpointMonitor) HealthStatus() model.ResourceStatus { return m.status }
