// Package provider defines the contract between the resource manager and the
// backends that actually hold resources, and ships pool and host backed
// implementations of it.
package provider

import (
	"context"
	"time"

	"github.com/bacalhau-project/governor/pkg/models"
)

// Provider is a backend that grants amounts of one or more resource types.
// Implementations must be safe for concurrent use.
type Provider interface {
	// ID uniquely identifies the provider within a manager.
	ID() string
	// SupportedResourceTypes lists the resource types the provider can grant.
	SupportedResourceTypes() []models.ResourceType
	// GetAvailability reports the provider health and the amount it can still grant per type.
	GetAvailability(ctx context.Context) (Availability, error)
	// Allocate grants a request. A refusal is reported through an unsuccessful
	// response, an error means the provider could not process the request.
	Allocate(ctx context.Context, request models.AllocationRequest) (AllocateResponse, error)
	// Release returns a previously granted allocation.
	Release(ctx context.Context, allocationID string) error
}

// Availability is a provider's answer to an availability query.
type Availability struct {
	Healthy   bool                          `json:"Healthy"`
	Available map[models.ResourceType]int64 `json:"Available"`
}

// AvailableFor returns the available amount of t, 0 when the provider doesn't offer it.
func (a Availability) AvailableFor(t models.ResourceType) int64 {
	return a.Available[t]
}

// AllocateResponse is a provider's answer to an allocation request.
type AllocateResponse struct {
	Successful   bool   `json:"Successful"`
	AllocationID string `json:"AllocationID,omitempty"`
	// Amount is the granted amount. Providers may grant less than requested.
	Amount       int64      `json:"Amount,omitempty"`
	ExpiresAt    *time.Time `json:"ExpiresAt,omitempty"`
	ErrorMessage string     `json:"ErrorMessage,omitempty"`
}

// Supports returns true if p declares support for t.
func Supports(p Provider, t models.ResourceType) bool {
	for _, supported := range p.SupportedResourceTypes() {
		if supported == t {
			return true
		}
	}
	return false
}
