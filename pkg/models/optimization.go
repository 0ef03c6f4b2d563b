package models

import (
	"slices"
	"sort"
	"time"
)

// RecommendationType categorises an optimization recommendation.
type RecommendationType string

const (
	RecommendationScaleUp        RecommendationType = "ScaleUp"
	RecommendationScaleDown      RecommendationType = "ScaleDown"
	RecommendationReleaseExpired RecommendationType = "ReleaseExpired"
	RecommendationReduceLoad     RecommendationType = "ReduceLoad"
	RecommendationFreeMemory     RecommendationType = "FreeMemory"
	RecommendationCleanupStorage RecommendationType = "CleanupStorage"
	RecommendationCustom         RecommendationType = "Custom"
)

// ImpactLevel is the expected effect of acting on a recommendation.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "Low"
	ImpactMedium   ImpactLevel = "Medium"
	ImpactHigh     ImpactLevel = "High"
	ImpactCritical ImpactLevel = "Critical"
)

// OptimizationRecommendation is a single piece of guidance. Lower Priority is more urgent.
type OptimizationRecommendation struct {
	Type         RecommendationType `json:"Type"`
	ResourceType ResourceType       `json:"ResourceType,omitempty"`
	Message      string             `json:"Message"`
	Impact       ImpactLevel        `json:"Impact"`
	Priority     int                `json:"Priority"`
	// AllocationID is set when the recommendation concerns a specific allocation.
	AllocationID string `json:"AllocationID,omitempty"`
	// Rule is the identifier of the rule that produced the recommendation, if any.
	Rule string `json:"Rule,omitempty"`
}

// SortRecommendations orders recommendations by priority, most urgent first.
// The sort is stable so that equal priorities keep their evaluation order.
func SortRecommendations(recs []OptimizationRecommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
}

// OptimizationHistoryEntry records one optimizer run.
type OptimizationHistoryEntry struct {
	Timestamp       time.Time                    `json:"Timestamp"`
	Usage           ResourceUsage                `json:"Usage"`
	Recommendations []OptimizationRecommendation `json:"Recommendations"`
}

// Copy returns a deep copy of e.
func (e OptimizationHistoryEntry) Copy() OptimizationHistoryEntry {
	out := e
	out.Usage = e.Usage.Copy()
	out.Recommendations = slices.Clone(e.Recommendations)
	return out
}

// ResourceOptimizationResult is returned by the manager's ledger based optimization.
type ResourceOptimizationResult struct {
	Recommendations []OptimizationRecommendation `json:"Recommendations"`
	Timestamp       time.Time                    `json:"Timestamp"`
}
