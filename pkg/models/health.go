package models

import (
	"time"
)

// HealthStatus is the health of a resource type or of the governor as a whole.
type HealthStatus int

const (
	HealthHealthy HealthStatus = iota
	HealthDegraded
	HealthUnhealthy
)

func (h HealthStatus) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthDegraded:
		return "Degraded"
	case HealthUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

func (h HealthStatus) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// Worst returns the more severe of h and other.
func (h HealthStatus) Worst(other HealthStatus) HealthStatus {
	if other > h {
		return other
	}
	return h
}

// ResourceHealthStatus is the per type health and the worst case roll-up.
type ResourceHealthStatus struct {
	Overall HealthStatus                  `json:"Overall"`
	ByType  map[ResourceType]HealthStatus `json:"ByType"`
}

// AlertType identifies the condition that raised an alert.
type AlertType string

const (
	AlertSoftLimitExceeded AlertType = "SoftLimitExceeded"
	AlertHardLimitReached  AlertType = "HardLimitReached"
	AlertHighUtilization   AlertType = "HighUtilization"
	AlertProviderUnhealthy AlertType = "ProviderUnhealthy"
)

// AlertSeverity is how urgent an alert is.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "Info"
	AlertSeverityWarning  AlertSeverity = "Warning"
	AlertSeverityCritical AlertSeverity = "Critical"
)

// ResourceAlert is a transient condition detected by a monitoring tick.
// Alerts are unique per (Type, ResourceType).
type ResourceAlert struct {
	Type         AlertType     `json:"Type"`
	ResourceType ResourceType  `json:"ResourceType"`
	Severity     AlertSeverity `json:"Severity"`
	Message      string        `json:"Message"`
	FirstSeen    time.Time     `json:"FirstSeen"`
	LastSeen     time.Time     `json:"LastSeen"`
}

// ResourceMetrics are the running allocation metrics of one resource type.
type ResourceMetrics struct {
	AllocationCount    int64     `json:"AllocationCount"`
	ReleaseCount       int64     `json:"ReleaseCount"`
	RejectionCount     int64     `json:"RejectionCount"`
	ActiveAllocations  int64     `json:"ActiveAllocations"`
	CurrentUtilization float64   `json:"CurrentUtilization"`
	AverageUtilization float64   `json:"AverageUtilization"`
	PeakUtilization    float64   `json:"PeakUtilization"`
	Samples            int64     `json:"Samples"`
	LastUpdated        time.Time `json:"LastUpdated"`
}

// ResourceMonitoringInfo is the manager's monitoring view.
type ResourceMonitoringInfo struct {
	Alerts    []ResourceAlert                  `json:"Alerts"`
	Metrics   map[ResourceType]ResourceMetrics `json:"Metrics"`
	Health    ResourceHealthStatus             `json:"Health"`
	Timestamp time.Time                        `json:"Timestamp"`
}
