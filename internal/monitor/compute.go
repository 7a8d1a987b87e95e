package monitor

import (
	"context"
	"time"

	"skywatch-agent/internal/model"
)

const (
	MetricCPUUsagePercent    = "cpu_usage_percent"
	MetricMemoryUsagePercent = "memory_usage_percent"
)

var (
	computeCPUBand = healthBand{degraded: 80, unhealthy: 95}
	computeMemBand = healthBand{degraded: 85, unhealthy: 95}
)

// ComputeMonitor samples CPU and memory utilization of a compute
// instance through a StatsSource. The first collection reports usage
// accumulated since boot; subsequent collections report the delta
// between snapshots.
type ComputeMonitor struct {
	resourceID string
	source     StatsSource
	clock      model.Clock

	prevCPU CPUCounters
	hasPrev bool
	status  model.ResourceStatus
}

func NewComputeMonitor(resourceID string, source StatsSource, clock model.Clock) *ComputeMonitor {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &ComputeMonitor{
		resourceID: resourceID,
		source:     source,
		clock:      clock,
		status:     model.StatusUnknown,
	}
}

func (m *ComputeMonitor) Collect(ctx context.Context) ([]model.MetricSample, error) {
	counters, err := m.source.CPUCounters(ctx)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}
	mem, err := m.source.MemoryInfo(ctx)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}

	prev := m.prevCPU
	if !m.hasPrev {
		prev = CPUCounters{}
	}
	cpuPct := cpuUsagePercent(prev, counters)
	m.prevCPU = counters
	m.hasPrev = true

	memPct := 0.0
	if mem.TotalBytes > 0 {
		memPct = float64(mem.TotalBytes-mem.AvailableBytes) / float64(mem.TotalBytes) * 100
	}

	at := m.clock()
	cpuSample, err := model.NewMetricSample(MetricCPUUsagePercent, cpuPct, "percent", at)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}
	memSample, err := model.NewMetricSample(MetricMemoryUsagePercent, memPct, "percent", at)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}

	m.status = worstStatus(computeCPUBand.classify(cpuPct), computeMemBand.classify(memPct))
	return []model.MetricSample{cpuSample, memSample}, nil
}

func (m *ComputeMonitor) HealthStatus() model.ResourceStatus { return m.status }
