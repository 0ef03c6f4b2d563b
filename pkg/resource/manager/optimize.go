package manager

import (
	"context"
	"fmt"

	"github.com/bacalhau-project/governor/pkg/models"
)

const (
	priorityScaleUp        = 1
	priorityReleaseExpired = 2
	priorityScaleDown      = 3
)

// Optimize produces recommendations from the ledger and provider state:
// scale up types above the scale up threshold, scale down types with
// capacity below the scale down threshold, and release allocations whose
// expiry has passed. Expired allocations are only flagged, never released.
func (m *Manager) Optimize(ctx context.Context) models.ResourceOptimizationResult {
	usage := m.GetUsage(ctx)
	now := m.clock.Now()

	var recs []models.OptimizationRecommendation
	for _, t := range models.AllResourceTypes() {
		if usage.Allocated[t]+usage.Available[t] <= 0 {
			continue
		}
		utilization := usage.Utilization[t]
		switch {
		case utilization > m.scaleUpPercent:
			recs = append(recs, models.OptimizationRecommendation{
				Type:         models.RecommendationScaleUp,
				ResourceType: t,
				Message:      fmt.Sprintf("%s utilization is %.1f%%, consider adding capacity", t, utilization),
				Impact:       models.ImpactHigh,
				Priority:     priorityScaleUp,
			})
		case utilization < m.scaleDownPercent:
			recs = append(recs, models.OptimizationRecommendation{
				Type:         models.RecommendationScaleDown,
				ResourceType: t,
				Message:      fmt.Sprintf("%s utilization is %.1f%%, capacity could be reduced", t, utilization),
				Impact:       models.ImpactLow,
				Priority:     priorityScaleDown,
			})
		}
	}

	for _, a := range usage.ActiveAllocations {
		if !a.IsExpired(now) {
			continue
		}
		recs = append(recs, models.OptimizationRecommendation{
			Type:         models.RecommendationReleaseExpired,
			ResourceType: a.Type,
			Message: fmt.Sprintf("allocation %s of %s expired at %s and is still held",
				a.ID, formatAmount(a.Type, a.Amount), a.ExpiresAt.Format("2006-01-02T15:04:05Z07:00")),
			Impact:       models.ImpactMedium,
			Priority:     priorityReleaseExpired,
			AllocationID: a.ID,
		})
	}

	models.SortRecommendations(recs)
	if recs == nil {
		recs = []models.OptimizationRecommendation{}
	}
	return models.ResourceOptimizationResult{
		Recommendations: recs,
		Timestamp:       now,
	}
}
