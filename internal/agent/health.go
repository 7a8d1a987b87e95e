package agent

import (
	"sync/atomic"
	"time"
)

type HealthStatus struct {
	lastTickAt      atomic.Int64
	lastTickSamples atomic.Int64
	tickCount       atomic.Int64
	collectFailures atomic.Int64
	openAlerts      atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) MarkTick(at time.Time, samples, failures, open int) {
	h.lastTickAt.Store(at.UnixNano())
	h.lastTickSamples.Store(int64(samples))
	h.tickCount.Add(1)
	h.collectFailures.Add(int64(failures))
	h.openAlerts.Store(int64(open))
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"ticks":             h.tickCount.Load(),
		"collect_failures":  h.collectFailures.Load(),
		"open_alerts":       h.openAlerts.Load(),
		"last_tick_samples": h.lastTickSamples.Load(),
	}
	if v := h.lastTickAt.Load(); v > 0 {
		out["last_tick_at"] = time.Unix(0, v).UTC()
	}
	return out
}
