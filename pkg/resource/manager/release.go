package manager

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/logger"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

// Release removes an allocation from the ledger and returns it to the
// provider that granted it. Releasing an unknown id is a no-op. Provider
// failures are logged and do not fail the release: once the ledger entry
// is gone the allocation is released as far as the governor is concerned.
func (m *Manager) Release(ctx context.Context, allocationID string) error {
	ctx, span := telemetry.Span(ctx, errComponent, "Release")
	defer span.End()

	err := m.release(ctx, allocationID)
	telemetry.RecordError(span, err)
	return err
}

func (m *Manager) release(ctx context.Context, allocationID string) error {
	if allocationID == "" {
		return goverrors.New("allocation id cannot be blank").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	ctx = log.Ctx(ctx).With().Str(logger.AllocationField(), allocationID).Logger().WithContext(ctx)

	if err := m.allocLock.Acquire(ctx, 1); err != nil {
		return goverrors.Wrap(err, "waiting for allocation lock").WithComponent(errComponent)
	}
	defer m.allocLock.Release(1)

	allocation, ok := m.ledger.remove(allocationID)
	if !ok {
		log.Ctx(ctx).Warn().Msg("release of unknown allocation ignored")
		return nil
	}
	m.monitoring.recordRelease(allocation.Type, m.clock.Now())
	if m.instruments != nil {
		m.instruments.AllocationsReleased.Inc(ctx,
			telemetry.AttrResourceType.String(allocation.Type.String()),
			telemetry.AttrProvider.String(allocation.ProviderID))
	}

	p := m.providerByID(allocation.ProviderID)
	if p == nil {
		log.Ctx(ctx).Warn().
			Str("code", goverrors.ProviderReleaseFailed.String()).
			Str("provider", allocation.ProviderID).
			Msg("provider of released allocation is no longer registered")
		return nil
	}
	m.releaseAtProvider(ctx, p, allocation)
	log.Ctx(ctx).Debug().Str(logger.ResourceField(), allocation.Type.String()).Msg("allocation released")
	return nil
}

// releaseAtProvider hands an allocation back to its provider. The call is
// detached from ctx so a cancelled caller cannot leak the grant.
func (m *Manager) releaseAtProvider(ctx context.Context, p provider.Provider, allocation models.ResourceAllocation) {
	timeout := m.limits[allocation.Type].Policy.Timeout
	if timeout <= 0 {
		timeout = models.DefaultAllocationTimeout
	}
	releaseCtx, cancel := context.WithTimeout(telemetry.NewDetachedContext(ctx), timeout)
	defer cancel()
	if err := p.Release(releaseCtx, allocation.ID); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("code", goverrors.ProviderReleaseFailed.String()).
			Str("provider", p.ID()).
			Msg("provider failed to release allocation")
	}
}
