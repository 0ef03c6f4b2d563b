package models

import (
	"errors"
	"fmt"
	"time"
)

// AllocationRequest is a caller's request for an amount of a single resource type.
type AllocationRequest struct {
	Type        ResourceType `json:"Type"`
	Amount      int64        `json:"Amount"`
	RequesterID string       `json:"RequesterID"`
	// Priority is carried for downstream consumers. Lower is more urgent.
	// It does not reorder requests inside the governor.
	Priority int `json:"Priority"`
	// Duration optionally asks the provider for a lease of this length.
	// Providers may ignore it.
	Duration time.Duration `json:"Duration,omitempty"`
}

// Validate checks the request preconditions that do not depend on governor state.
func (r AllocationRequest) Validate() error {
	var errs []error
	if !r.Type.IsValid() {
		errs = append(errs, fmt.Errorf("unknown resource type %q", r.Type))
	}
	if r.Amount <= 0 {
		errs = append(errs, fmt.Errorf("amount must be greater than zero, got %d", r.Amount))
	}
	if r.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %s", r.Duration))
	}
	return errors.Join(errs...)
}

// ResourceAllocation is one granted allocation recorded in the ledger.
type ResourceAllocation struct {
	ID string `json:"ID"`
	// ProviderID identifies the provider that served the allocation,
	// so release can be routed to it directly.
	ProviderID  string       `json:"ProviderID"`
	Type        ResourceType `json:"Type"`
	Amount      int64        `json:"Amount"`
	RequesterID string       `json:"RequesterID"`
	AllocatedAt time.Time    `json:"AllocatedAt"`
	ExpiresAt   *time.Time   `json:"ExpiresAt,omitempty"`
	Priority    int          `json:"Priority"`
}

// Copy returns a copy of a that shares no memory with it.
func (a ResourceAllocation) Copy() ResourceAllocation {
	if a.ExpiresAt != nil {
		expires := *a.ExpiresAt
		a.ExpiresAt = &expires
	}
	return a
}

// CopyAllocations deep copies allocations. A nil slice stays nil.
func CopyAllocations(allocations []ResourceAllocation) []ResourceAllocation {
	if allocations == nil {
		return nil
	}
	out := make([]ResourceAllocation, len(allocations))
	for i, a := range allocations {
		out[i] = a.Copy()
	}
	return out
}

// IsExpired returns true if the allocation has an expiry that is not after now.
// Expiry is advisory and does not cause the allocation to be released.
func (a ResourceAllocation) IsExpired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

func (a ResourceAllocation) String() string {
	return fmt.Sprintf("%s[%s %d %s by %s]", a.ID, a.Type, a.Amount, a.Type.Unit(), a.RequesterID)
}

// AllocationResult is the outcome of an allocation request.
// A failed result carries the error code and a human readable reason.
type AllocationResult struct {
	Successful   bool         `json:"Successful"`
	AllocationID string       `json:"AllocationID,omitempty"`
	Type         ResourceType `json:"Type"`
	// Amount is the granted amount, which a provider may clamp below the request.
	Amount    int64      `json:"Amount,omitempty"`
	ExpiresAt *time.Time `json:"ExpiresAt,omitempty"`
	Code      string     `json:"Code,omitempty"`
	Reason    string     `json:"Reason,omitempty"`
	// Warnings lists non fatal conditions, such as exceeding the soft limit.
	Warnings []string `json:"Warnings,omitempty"`
}

// NewRejectedAllocation builds a failed result.
func NewRejectedAllocation(t ResourceType, code, reason string) AllocationResult {
	return AllocationResult{
		Type:   t,
		Code:   code,
		Reason: reason,
	}
}
