package monitor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// CPUCounters are cumulative jiffies from the aggregate cpu line.
type CPUCounters struct {
	User   uint64
	Nice   uint64
	System uint64
	Idle   uint64
	IOWait uint64
	Total  uint64
}

type MemoryInfo struct {
	TotalBytes     uint64
	AvailableBytes uint64
}

// DiskCounters are cumulative transferred bytes across block devices.
type DiskCounters struct {
	ReadBytes  uint64
	WriteBytes uint64
}

type FilesystemUsage struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// StatsSource abstracts the host-level readings the compute and volume
// monitors are built on, so tests can substitute fixed values.
type StatsSource interface {
	CPUCounters(ctx context.Context) (CPUCounters, error)
	MemoryInfo(ctx context.Context) (MemoryInfo, error)
	DiskCounters(ctx context.Context) (DiskCounters, error)
	FilesystemUsage(ctx context.Context, path string) (FilesystemUsage, error)
}

// ProcStatsSource reads from the proc filesystem. The root is
// overridable so tests can point at fixture files.
type ProcStatsSource struct {
	root string
}

func NewProcStatsSource(root string) *ProcStatsSource {
	if root == "" {
		root = "/proc"
	}
	return &ProcStatsSource{root: root}
}

func (p *ProcStatsSource) CPUCounters(ctx context.Context) (CPUCounters, error) {
	if err := ctx.Err(); err != nil {
		return CPUCounters{}, err
	}
	path := filepath.Join(p.root, "stat")
	f, err := os.Open(path)
	if err != nil {
		return CPUCounters{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		if len(fields) < 5 {
			return CPUCounters{}, fmt.Errorf("unexpected cpu line in %s: %q", path, line)
		}
		vals := make([]uint64, len(fields))
		for i, raw := range fields {
			v, convErr := strconv.ParseUint(raw, 10, 64)
			if convErr != nil {
				return CPUCounters{}, fmt.Errorf("parse cpu field %q: %w", raw, convErr)
			}
			vals[i] = v
		}
		c := CPUCounters{User: vals[0], Nice: vals[1], System: vals[2], Idle: vals[3], IOWait: vals[4]}
		for _, v := range vals {
			c.Total += v
		}
		return c, nil
	}
	if err := s.Err(); err != nil {
		return CPUCounters{}, fmt.Errorf("scan %s: %w", path, err)
	}
	return CPUCounters{}, fmt.Errorf("cpu aggregate line not found in %s", path)
}

func (p *ProcStatsSource) MemoryInfo(ctx context.Context) (MemoryInfo, error) {
	if err := ctx.Err(); err != nil {
		return MemoryInfo{}, err
	}
	path := filepath.Join(p.root, "meminfo")
	f, err := os.Open(path)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vals := map[string]uint64{}
	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 2 {
			continue
		}
		v, convErr := strconv.ParseUint(fields[1], 10, 64)
		if convErr != nil {
			continue
		}
		vals[strings.TrimSuffix(fields[0], ":")] = v * 1024
	}
	if err := s.Err(); err != nil {
		return MemoryInfo{}, fmt.Errorf("scan %s: %w", path, err)
	}
	total := vals["MemTotal"]
	if total == 0 {
		return MemoryInfo{}, fmt.Errorf("MemTotal missing in %s", path)
	}
	return MemoryInfo{TotalBytes: total, AvailableBytes: vals["MemAvailable"]}, nil
}

func (p *ProcStatsSource) DiskCounters(ctx context.Context) (DiskCounters, error) {
	if err := ctx.Err(); err != nil {
		return DiskCounters{}, err
	}
	path := filepath.Join(p.root, "diskstats")
	f, err := os.Open(path)
	if err != nil {
		return DiskCounters{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out DiskCounters
	s := bufio.NewScanner(f)
	for s.Scan() {
		fields := strings.Fields(s.Text())
		if len(fields) < 10 || !isBlockDevice(fields[2]) {
			continue
		}
		sectorsRead, errRead := strconv.ParseUint(fields[5], 10, 64)
		sectorsWritten, errWrite := strconv.ParseUint(fields[9], 10, 64)
		if errRead != nil || errWrite != nil {
			continue
		}
		out.ReadBytes += sectorsRead * 512
		out.WriteBytes += sectorsWritten * 512
	}
	if err := s.Err(); err != nil {
		return DiskCounters{}, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

func (p *ProcStatsSource) FilesystemUsage(ctx context.Context, path string) (FilesystemUsage, error) {
	if err := ctx.Err(); err != nil {
		return FilesystemUsage{}, err
	}
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return FilesystemUsage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize)
	return FilesystemUsage{
		TotalBytes: st.Blocks * bsize,
		FreeBytes:  st.Bavail * bsize,
	}, nil
}

func isBlockDevice(name string) bool {
	for _, prefix := range []string{"loop", "ram", "fd"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	for _, prefix := range []string{"dm-", "nvme", "sd", "vd", "xvd"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// cpuUsagePercent derives busy percentage from two counter snapshots.
func cpuUsagePercent(prev, cur CPUCounters) float64 {
	if cur.Total <= prev.Total {
		return 0
	}
	totalDelta := float64(cur.Total - prev.Total)
	idleDelta := float64((cur.Idle + cur.IOWait) - (prev.Idle + prev.IOWait))
	if idleDelta < 0 {
		idleDelta = 0
	}
	usage := ((totalDelta - idleDelta) / totalDelta) * 100
	if usage < 0 {
		return 0
	}
	if usage > 100 {
		return 100
	}
	return usage
}
