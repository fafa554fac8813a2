package models

import "time"

// Provider identifies a cloud platform
type Provider string

const (
	ProviderAWS          Provider = "aws"
	ProviderAzure        Provider = "azure"
	ProviderGCP          Provider = "gcp"
	ProviderDigitalOcean Provider = "digitalocean"
	ProviderDefault      Provider = "default"
)

// ResourceType represents the kind of billable resource
type ResourceType string

const (
	ResourceCompute      ResourceType = "compute"
	ResourceDisk         ResourceType = "disk"
	ResourceDatabase     ResourceType = "database"
	ResourceLoadBalancer ResourceType = "load_balancer"
)

// MetricName represents a utilization metric
type MetricName string

const (
	MetricCPUPct       MetricName = "cpu_pct"
	MetricMemoryPct    MetricName = "memory_pct"
	MetricNetworkBytes MetricName = "network_bytes"
	MetricIOPS         MetricName = "iops"
)

// ResourceSample is a single utilization data point. Immutable once recorded.
type ResourceSample struct {
	ResourceID   string       `yaml:"resource_id" json:"resource_id"`
	Provider     Provider     `yaml:"provider" json:"provider"`
	ResourceType ResourceType `yaml:"resource_type" json:"resource_type"`
	Timestamp    time.Time    `yaml:"timestamp" json:"timestamp"`
	Metric       MetricName   `yaml:"metric" json:"metric"`
	Value        float64      `yaml:"value" json:"value"`
}

// ResourceInfo describes a billable resource as reported by a metrics source.
// Shape is the provider-specific size identifier (instance type, disk tier).
type ResourceInfo struct {
	ID       string            `yaml:"id" json:"id"`
	Provider Provider          `yaml:"provider" json:"provider"`
	Type     ResourceType      `yaml:"type" json:"type"`
	Shape    string            `yaml:"shape" json:"shape"`
	Region   string            `yaml:"region" json:"region"`
	Tags     map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Window is a half-open time interval: Start inclusive, End exclusive.
type Window struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// IsValid reports whether the window is non-empty and ordered.
func (w Window) IsValid() bool {
	return w.End.After(w.Start)
}
