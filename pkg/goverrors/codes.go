package goverrors

// ErrorCode classifies governor errors.
type ErrorCode string

const (
	// NoProviderAvailable means no registered, healthy provider can serve a request.
	NoProviderAvailable ErrorCode = "NoProviderAvailable"
	// LimitExceeded means a request would push allocated amounts above the hard limit
	// or outside the per request policy bounds.
	LimitExceeded ErrorCode = "LimitExceeded"
	// ProviderAllocationFailed means the selected provider refused or failed the allocation.
	ProviderAllocationFailed ErrorCode = "ProviderAllocationFailed"
	// ProviderReleaseFailed means a provider could not release an allocation.
	// The release is still complete from the ledger's point of view.
	ProviderReleaseFailed ErrorCode = "ProviderReleaseFailed"
	// SamplingUnavailable means a host metric could not be sampled.
	SamplingUnavailable ErrorCode = "SamplingUnavailable"
	// RuleEvaluationFailed means an optimization rule failed and was skipped.
	RuleEvaluationFailed ErrorCode = "RuleEvaluationFailed"

	BadRequest    ErrorCode = "BadRequest"
	NotFound      ErrorCode = "NotFound"
	AlreadyExists ErrorCode = "AlreadyExists"
	Cancelled     ErrorCode = "Cancelled"
	Internal      ErrorCode = "Internal"
	Unknown       ErrorCode = "Unknown"
)

func (c ErrorCode) String() string {
	return string(c)
}
