package monitor

import (
	"context"
	"time"

	"skywatch-agent/internal/model"
)

const (
	MetricDiskUsedPercent = "disk_used_percent"
	MetricDiskReadMBs     = "disk_read_mb_s"
	MetricDiskWriteMBs    = "disk_write_mb_s"
)

var volumeUsedBand = healthBand{degraded: 80, unhealthy: 92}

// VolumeMonitor samples capacity and throughput of a storage volume.
// Throughput is a rate between collections and reads zero on the first
// one.
type VolumeMonitor struct {
	resourceID string
	source     StatsSource
	mountPath  string
	clock      model.Clock

	prevDisk DiskCounters
	prevAt   time.Time
	hasPrev  bool
	status   model.ResourceStatus
}

func NewVolumeMonitor(resourceID string, source StatsSource, mountPath string, clock model.Clock) *VolumeMonitor {
	if mountPath == "" {
		mountPath = "/"
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &VolumeMonitor{
		resourceID: resourceID,
		source:     source,
		mountPath:  mountPath,
		clock:      clock,
		status:     model.StatusUnknown,
	}
}

func (m *VolumeMonitor) Collect(ctx context.Context) ([]model.MetricSample, error) {
	usage, err := m.source.FilesystemUsage(ctx, m.mountPath)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}
	counters, err := m.source.DiskCounters(ctx)
	if err != nil {
		return nil, WrapCollectErr(m.resourceID, err)
	}

	at := m.clock()
	usedPct := 0.0
	if usage.TotalBytes > 0 {
		usedPct = float64(usage.TotalBytes-usage.FreeBytes) / float64(usage.TotalBytes) * 100
	}

	var readRate, writeRate float64
	if m.hasPrev {
		elapsed := at.Sub(m.prevAt).Seconds()
		if elapsed > 0 {
			readRate = bytesPerSecToMB(counters.ReadBytes, m.prevDisk.ReadBytes, elapsed)
			writeRate = bytesPerSecToMB(counters.WriteBytes, m.prevDisk.WriteBytes, elapsed)
		}
	}
	m.prevDisk = counters
	m.prevAt = at
	m.hasPrev = true

	samples := make([]model.MetricSample, 0, 3)
	for _, entry := range []struct {
		name  string
		value float64
		unit  string
	}{
		{MetricDiskUsedPercent, usedPct, "percent"},
		{MetricDiskReadMBs, readRate, "MB/s"},
		{MetricDiskWriteMBs, writeRate, "MB/s"},
	} {
		s, err := model.NewMetricSample(entry.name, entry.value, entry.unit, at)
		if err != nil {
			return nil, WrapCollectErr(m.resourceID, err)
		}
		samples = append(samples, s)
	}

	m.status = volumeUsedBand.classify(usedPct)
	return samples, nil
}

func (m *VolumeMonitor) HealthStatus() model.ResourceStatus { return m.status }

func bytesPerSecToMB(cur, prev uint64, elapsed float64) float64 {
	if cur <= prev {
		return 0
	}
	return float64(cur-prev) / elapsed / (1024 * 1024)
}
