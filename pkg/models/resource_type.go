package models

import (
	"fmt"
	"strings"
)

// ResourceType identifies a kind of resource tracked by the governor.
// The set is closed: only the constants below are valid.
type ResourceType string

const (
	// ResourceTypeCPU is measured in percentage points, 100 per core.
	ResourceTypeCPU ResourceType = "CPU"
	// ResourceTypeMemory is measured in bytes.
	ResourceTypeMemory ResourceType = "Memory"
	// ResourceTypeGPU is measured in slots.
	ResourceTypeGPU ResourceType = "GPU"
	// ResourceTypeStorage is measured in bytes.
	ResourceTypeStorage ResourceType = "Storage"
	// ResourceTypeNetwork is measured in bytes per second.
	ResourceTypeNetwork ResourceType = "Network"
	// ResourceTypeAIModel is measured in slots.
	ResourceTypeAIModel ResourceType = "AIModel"
)

var allResourceTypes = []ResourceType{
	ResourceTypeCPU,
	ResourceTypeMemory,
	ResourceTypeGPU,
	ResourceTypeStorage,
	ResourceTypeNetwork,
	ResourceTypeAIModel,
}

// AllResourceTypes returns every supported resource type in a stable order.
func AllResourceTypes() []ResourceType {
	out := make([]ResourceType, len(allResourceTypes))
	copy(out, allResourceTypes)
	return out
}

// ParseResourceType converts a case-insensitive name into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	name := strings.TrimSpace(s)
	for _, t := range allResourceTypes {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown resource type %q", s)
}

func (t ResourceType) String() string {
	return string(t)
}

// IsValid returns true if t is one of the supported resource types.
func (t ResourceType) IsValid() bool {
	for _, v := range allResourceTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Unit returns a short human readable name of the unit amounts of this type are expressed in.
func (t ResourceType) Unit() string {
	switch t {
	case ResourceTypeCPU:
		return "cpu-pct"
	case ResourceTypeMemory, ResourceTypeStorage:
		return "bytes"
	case ResourceTypeNetwork:
		return "bytes/s"
	case ResourceTypeGPU, ResourceTypeAIModel:
		return "slots"
	default:
		return ""
	}
}

func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t), nil
}

func (t *ResourceType) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
