package manager

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
)

type providerState struct {
	provider     provider.Provider
	healthy      bool
	availability provider.Availability
}

// GetUsage aggregates the ledger with the live availability of every
// provider. Providers that fail to answer count as unhealthy with nothing
// available. It never fails.
func (m *Manager) GetUsage(ctx context.Context) models.ResourceUsage {
	usage, _ := m.usageSnapshot(ctx)
	return usage
}

func (m *Manager) usageSnapshot(ctx context.Context) (models.ResourceUsage, []providerState) {
	states := m.queryProviders(ctx)
	totals, allocations := m.ledger.snapshot()

	available := make(map[models.ResourceType]int64)
	for _, s := range states {
		if !s.healthy {
			continue
		}
		for _, t := range s.provider.SupportedResourceTypes() {
			available[t] += s.availability.AvailableFor(t)
		}
	}

	usage := models.NewResourceUsage(m.clock.Now())
	for _, t := range models.AllResourceTypes() {
		usage.Set(t, totals[t], available[t])
	}
	usage.ActiveAllocations = allocations
	return usage, states
}

func (m *Manager) queryProviders(ctx context.Context) []providerState {
	providers := m.Providers()
	states := make([]providerState, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		i, p := i, p
		states[i].provider = p
		g.Go(func() error {
			availability, err := p.GetAvailability(ctx)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("provider", p.ID()).Msg("provider availability query failed")
				return nil
			}
			states[i].healthy = availability.Healthy
			states[i].availability = availability
			return nil
		})
	}
	_ = g.Wait()
	return states
}
