package models

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultSoftLimitPercent is the share of the maximum at which allocations start to warn.
	DefaultSoftLimitPercent = 80
	// DefaultHardLimitPercent is the share of the maximum above which allocations are rejected.
	DefaultHardLimitPercent = 95
	// DefaultAllocationTimeout bounds a single provider allocation call.
	DefaultAllocationTimeout = 30 * time.Second
)

// AllocationPolicy constrains individual allocation requests of one resource type.
type AllocationPolicy struct {
	// MaxPerRequest is the largest amount a single request may ask for. 0 means no limit.
	MaxPerRequest int64 `json:"MaxPerRequest"`
	// MinPerRequest is the smallest amount a single request may ask for. 0 means no limit.
	MinPerRequest int64 `json:"MinPerRequest"`
	// Timeout bounds the provider allocation call. 0 uses DefaultAllocationTimeout.
	Timeout               time.Duration `json:"Timeout"`
	AllowOverAllocation   bool          `json:"AllowOverAllocation"`
	OverAllocationPercent int           `json:"OverAllocationPercent"`
}

// ResourceLimit holds the limits of a single resource type.
type ResourceLimit struct {
	Maximum   int64            `json:"Maximum"`
	SoftLimit int64            `json:"SoftLimit"`
	HardLimit int64            `json:"HardLimit"`
	Policy    AllocationPolicy `json:"Policy"`
}

// NewResourceLimit derives soft and hard limits from the maximum using the default percentages.
// Both limits are at least 1 when the maximum is positive, so single slot
// resources remain allocatable.
func NewResourceLimit(maximum int64) ResourceLimit {
	soft := percentOf(maximum, DefaultSoftLimitPercent)
	hard := percentOf(maximum, DefaultHardLimitPercent)
	if maximum > 0 {
		soft = max(soft, 1)
		hard = max(hard, 1)
	}
	return ResourceLimit{
		Maximum:   maximum,
		SoftLimit: soft,
		HardLimit: hard,
		Policy: AllocationPolicy{
			Timeout: DefaultAllocationTimeout,
		},
	}
}

// EffectiveHardLimit returns the hard limit, extended by the over-allocation
// percentage when the policy allows over-allocation.
func (l ResourceLimit) EffectiveHardLimit() int64 {
	if !l.Policy.AllowOverAllocation || l.Policy.OverAllocationPercent <= 0 {
		return l.HardLimit
	}
	return l.HardLimit + percentOf(l.HardLimit, l.Policy.OverAllocationPercent)
}

// Validate checks 0 < soft <= hard <= maximum and that the policy is consistent.
func (l ResourceLimit) Validate() error {
	var errs []error
	if l.SoftLimit <= 0 {
		errs = append(errs, fmt.Errorf("soft limit must be greater than zero, got %d", l.SoftLimit))
	}
	if l.SoftLimit > l.HardLimit {
		errs = append(errs, fmt.Errorf("soft limit %d is greater than hard limit %d", l.SoftLimit, l.HardLimit))
	}
	if l.HardLimit > l.Maximum {
		errs = append(errs, fmt.Errorf("hard limit %d is greater than maximum %d", l.HardLimit, l.Maximum))
	}
	p := l.Policy
	if p.MinPerRequest < 0 || p.MaxPerRequest < 0 {
		errs = append(errs, errors.New("per request bounds must not be negative"))
	}
	if p.MaxPerRequest > 0 && p.MinPerRequest > p.MaxPerRequest {
		errs = append(errs, fmt.Errorf("min per request %d is greater than max per request %d",
			p.MinPerRequest, p.MaxPerRequest))
	}
	if p.OverAllocationPercent < 0 {
		errs = append(errs, fmt.Errorf("over allocation percent must not be negative, got %d", p.OverAllocationPercent))
	}
	if p.Timeout < 0 {
		errs = append(errs, fmt.Errorf("allocation timeout must not be negative, got %s", p.Timeout))
	}
	return errors.Join(errs...)
}

// ResourceLimits is the limit table keyed by resource type.
type ResourceLimits map[ResourceType]ResourceLimit

// Validate validates every entry of the table.
func (l ResourceLimits) Validate() error {
	var errs []error
	for _, t := range AllResourceTypes() {
		limit, ok := l[t]
		if !ok {
			continue
		}
		if err := limit.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
	}
	for t := range l {
		if !t.IsValid() {
			errs = append(errs, fmt.Errorf("unknown resource type %q in limits", t))
		}
	}
	return errors.Join(errs...)
}

// Copy returns a copy of the table that can be mutated independently.
func (l ResourceLimits) Copy() ResourceLimits {
	out := make(ResourceLimits, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func percentOf(v int64, pct int) int64 {
	return v * int64(pct) / 100
}
