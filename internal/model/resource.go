package model

import (
	"fmt"
	"sync"
)

type ResourceStatus string

const (
	StatusUnknown   ResourceStatus = "unknown"
	StatusHealthy   ResourceStatus = "healthy"
	StatusDegraded  ResourceStatus = "degraded"
	StatusUnhealthy ResourceStatus = "unhealthy"
)

type ResourceType string

const (
	ResourceCompute  ResourceType = "compute_instance"
	ResourceVolume   ResourceType = "storage_volume"
	ResourceEndpoint ResourceType = "network_endpoint"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceCompute, ResourceVolume, ResourceEndpoint:
		return true
	}
	return false
}

// CloudResource is one monitored resource. ID is unique within a
// (region, type) pair. The latest-sample cache holds only the most
// recent reading per metric name; history belongs to sinks.
//
// Only the scheduler mutates a resource, but status and the cache are
// read from other goroutines (the health endpoint), so both are
// guarded.
type CloudResource struct {
	ID       string
	Type     ResourceType
	Region   string
	Metadata map[string]string

	mu     sync.RWMutex
	status ResourceStatus
	latest map[string]MetricSample
}

func NewCloudResource(id string, typ ResourceType, region string, metadata map[string]string) *CloudResource {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &CloudResource{
		ID:       id,
		Type:     typ,
		Region:   region,
		Metadata: metadata,
		status:   StatusUnknown,
		latest:   map[string]MetricSample{},
	}
}

// Key identifies the resource within the registry.
func (r *CloudResource) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Region, r.Type, r.ID)
}

func (r *CloudResource) Status() ResourceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *CloudResource) SetStatus(s ResourceStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// RecordSamples refreshes the latest-sample cache.
func (r *CloudResource) RecordSamples(samples []MetricSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.latest[s.Name()] = s
	}
}

// Latest returns the most recent sample recorded for a metric name.
func (r *CloudResource) Latest(metric string) (MetricSample, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.latest[metric]
	return s, ok
}
