package monitor

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skywatch-agent/internal/model"
)

type fakeStatsSource struct {
	cpu  CPUCounters
	mem  MemoryInfo
	disk DiskCounters
	fs   FilesystemUsage
	err  error
}

func (f *fakeStatsSource) CPUCounters(ctx context.Context) (CPUCounters, error) {
	return f.cpu, f.err
}

func (f *fakeStatsSource) MemoryInfo(ctx context.Context) (MemoryInfo, error) {
	return f.mem, f.err
}

func (f *fakeStatsSource) DiskCounters(ctx context.Context) (DiskCounters, error) {
	return f.disk, f.err
}

func (f *fakeStatsSource) FilesystemUsage(ctx context.Context, path string) (FilesystemUsage, error) {
	return f.fs, f.err
}

func steppedClock(start time.Time, step time.Duration) model.Clock {
	t := start
	return func() time.Time {
		now := t
		t = t.Add(step)
		return now
	}
}

func byName(t *testing.T, samples []model.MetricSample, name string) model.MetricSample {
	t.Helper()
	for _, s := range samples {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no sample named %q", name)
	return model.MetricSample{}
}

func TestComputeMonitorDeltaAndBands(t *testing.T) {
	src := &fakeStatsSource{
		cpu: CPUCounters{User: 50, Idle: 50, Total: 100},
		mem: MemoryInfo{TotalBytes: 1000, AvailableBytes: 250},
	}
	m := NewComputeMonitor("vm-1", src, steppedClock(time.Unix(1700000000, 0).UTC(), time.Second))

	samples, err := m.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.InDelta(t, 50.0, byName(t, samples, MetricCPUUsagePercent).Value(), 0.01)
	assert.InDelta(t, 75.0, byName(t, samples, MetricMemoryUsagePercent).Value(), 0.01)
	assert.Equal(t, model.StatusHealthy, m.HealthStatus())

	// 100 more jiffies of which 10 idle, and memory nearly exhausted.
	src.cpu = CPUCounters{User: 140, Idle: 60, Total: 200}
	src.mem = MemoryInfo{TotalBytes: 1000, AvailableBytes: 40}

	samples, err = m.Collect(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 90.0, byName(t, samples, MetricCPUUsagePercent).Value(), 0.01)
	assert.InDelta(t, 96.0, byName(t, samples, MetricMemoryUsagePercent).Value(), 0.01)
	assert.Equal(t, model.StatusUnhealthy, m.HealthStatus())
}

func TestComputeMonitorSourceFailure(t *testing.T) {
	src := &fakeStatsSource{err: errors.New("proc unreadable")}
	m := NewComputeMonitor("vm-1", src, nil)

	_, err := m.Collect(context.Background())
	require.Error(t, err)

	var ce *CollectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "vm-1", ce.ResourceID)
	assert.False(t, ce.Timeout)
}

func TestWrapCollectErrFlagsDeadline(t *testing.T) {
	err := WrapCollectErr("vm-1", context.DeadlineExceeded)
	var ce *CollectionError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Timeout)

	// already-wrapped errors pass through untouched
	assert.Same(t, err, WrapCollectErr("vm-2", err))
	assert.NoError(t, WrapCollectErr("vm-1", nil))
}

func TestVolumeMonitorRates(t *testing.T) {
	src := &fakeStatsSource{
		fs:   FilesystemUsage{TotalBytes: 1000, FreeBytes: 100},
		disk: DiskCounters{ReadBytes: 0, WriteBytes: 0},
	}
	m := NewVolumeMonitor("vol-1", src, "/data", steppedClock(time.Unix(1700000000, 0).UTC(), 2*time.Second))

	samples, err := m.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.InDelta(t, 90.0, byName(t, samples, MetricDiskUsedPercent).Value(), 0.01)
	assert.Zero(t, byName(t, samples, MetricDiskReadMBs).Value())
	assert.Zero(t, byName(t, samples, MetricDiskWriteMBs).Value())
	assert.Equal(t, model.StatusDegraded, m.HealthStatus())

	// 4 MiB read and 8 MiB written over the 2s between collections.
	src.disk = DiskCounters{ReadBytes: 4 << 20, WriteBytes: 8 << 20}

	samples, err = m.Collect(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, byName(t, samples, MetricDiskReadMBs).Value(), 0.01)
	assert.InDelta(t, 4.0, byName(t, samples, MetricDiskWriteMBs).Value(), 0.01)
}

func TestEndpointMonitorReachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	m := NewEndpointMonitor("api-1", l.Addr().String(), nil)
	samples, err := m.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, 1.0, byName(t, samples, MetricAvailability).Value())
	assert.GreaterOrEqual(t, byName(t, samples, MetricLatencyMs).Value(), 0.0)
	assert.Equal(t, model.StatusHealthy, m.HealthStatus())
}

func TestEndpointMonitorDownEndpointIsNotAnError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	m := NewEndpointMonitor("api-1", addr, nil)
	samples, err := m.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 0.0, byName(t, samples, MetricAvailability).Value())
	assert.Equal(t, model.StatusUnhealthy, m.HealthStatus())
}

func TestEndpointMonitorDeadlineIsCollectionError(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	m := NewEndpointMonitor("api-1", "10.255.255.1:443", nil)
	_, err := m.Collect(ctx)
	require.Error(t, err)

	var ce *CollectionError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Timeout)
}

func TestHealthBandClassify(t *testing.T) {
	band := healthBand{degraded: 80, unhealthy: 95}
	assert.Equal(t, model.StatusHealthy, band.classify(79.9))
	assert.Equal(t, model.StatusDegraded, band.classify(80))
	assert.Equal(t, model.StatusDegraded, band.classify(94.9))
	assert.Equal(t, model.StatusUnhealthy, band.classify(95))

	assert.Equal(t, model.StatusUnhealthy, worstStatus(model.StatusDegraded, model.StatusUnhealthy))
	assert.Equal(t, model.StatusDegraded, worstStatus(model.StatusDegraded, model.StatusHealthy))
}
