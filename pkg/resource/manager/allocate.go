package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/logger"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

// Allocate grants request.Amount of request.Type from the registered
// provider with the most headroom, provided the ledger total stays within
// the hard limit.
//
// A rejected request returns an unsuccessful result carrying the error code
// and reason, together with a goverrors.Error of the same code. Rejections
// never change the ledger.
func (m *Manager) Allocate(ctx context.Context, request models.AllocationRequest) (models.AllocationResult, error) {
	ctx, span := telemetry.Span(ctx, errComponent, "Allocate", trace.WithAttributes(
		telemetry.AttrResourceType.String(request.Type.String()),
		attribute.Int64("amount", request.Amount),
	))
	defer span.End()

	result, err := m.allocate(ctx, request)
	telemetry.RecordError(span, err)
	return result, err
}

func (m *Manager) allocate(ctx context.Context, request models.AllocationRequest) (models.AllocationResult, error) {
	if m.instruments != nil {
		defer telemetry.Timer(ctx, m.clock, m.instruments.AllocateDuration,
			telemetry.AttrResourceType.String(request.Type.String()))()
	}
	ctx = logger.ContextWithRequester(ctx, request.RequesterID)
	l := log.Ctx(ctx).With().
		Str(logger.ResourceField(), request.Type.String()).
		Int64("amount", request.Amount).
		Logger()
	ctx = l.WithContext(ctx)

	if err := request.Validate(); err != nil {
		return m.reject(ctx, request, goverrors.Wrap(err, "invalid allocation request").
			WithCode(goverrors.BadRequest))
	}
	limit := m.limits[request.Type]
	if err := checkPolicy(request, limit.Policy); err != nil {
		return m.reject(ctx, request, err)
	}

	if err := m.allocLock.Acquire(ctx, 1); err != nil {
		return m.reject(ctx, request, goverrors.Wrap(err, "waiting for allocation lock"))
	}
	defer m.allocLock.Release(1)

	candidates := m.candidates(request.Type)
	if len(candidates) == 0 {
		return m.reject(ctx, request, goverrors.New("no provider supports %s", request.Type).
			WithCode(goverrors.NoProviderAvailable).
			WithHint("register a provider that supports %s", request.Type))
	}

	var warnings []string
	current := m.ledger.total(request.Type)
	if hard := limit.EffectiveHardLimit(); request.Amount > hard-current {
		return m.reject(ctx, request, goverrors.New(
			"allocating %s of %s would exceed the hard limit: %s allocated, hard limit %s",
			formatAmount(request.Type, request.Amount), request.Type,
			formatAmount(request.Type, current), formatAmount(request.Type, hard)).
			WithCode(goverrors.LimitExceeded).
			WithDetail("allocated", fmt.Sprint(current)).
			WithDetail("hardLimit", fmt.Sprint(hard)))
	}
	if request.Amount > limit.SoftLimit-current {
		requested := current + request.Amount
		warning := fmt.Sprintf("%s allocation of %d exceeds the soft limit of %d", request.Type, requested, limit.SoftLimit)
		warnings = append(warnings, warning)
		m.softLimitWarning(request.Type).Do(func() {
			log.Ctx(ctx).Warn().Int64("allocated", requested).Int64("softLimit", limit.SoftLimit).
				Msg("allocation exceeds soft limit")
		})
	}

	chosen, err := m.selectProvider(ctx, candidates, request)
	if err != nil {
		return m.reject(ctx, request, err)
	}

	timeout := limit.Policy.Timeout
	if timeout <= 0 {
		timeout = models.DefaultAllocationTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	response, allocErr := chosen.Allocate(callCtx, request)
	cancel()
	if allocErr == nil && !response.Successful {
		reason := response.ErrorMessage
		if reason == "" {
			reason = "allocation declined"
		}
		allocErr = errors.New(reason)
	}
	if allocErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return m.reject(ctx, request, goverrors.Wrap(ctxErr, "allocation cancelled"))
		}
		return m.reject(ctx, request, goverrors.Wrap(allocErr, "provider %s failed to allocate %s", chosen.ID(), request.Type).
			WithCode(goverrors.ProviderAllocationFailed).
			WithDetail("provider", chosen.ID()).
			WithRetryable())
	}

	allocation := models.ResourceAllocation{
		ID:          response.AllocationID,
		ProviderID:  chosen.ID(),
		Type:        request.Type,
		Amount:      grantedAmount(request.Amount, response.Amount),
		RequesterID: request.RequesterID,
		AllocatedAt: m.clock.Now(),
		ExpiresAt:   response.ExpiresAt,
		Priority:    request.Priority,
	}
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}

	// the caller gave up while the provider was working: hand the grant back
	if err := ctx.Err(); err != nil {
		m.releaseAtProvider(ctx, chosen, allocation)
		return m.reject(ctx, request, goverrors.Wrap(err, "allocation cancelled"))
	}
	if !m.ledger.insert(allocation) {
		return m.reject(ctx, request, goverrors.New("provider %s returned duplicate allocation id %s",
			chosen.ID(), allocation.ID).
			WithCode(goverrors.ProviderAllocationFailed).
			WithDetail("provider", chosen.ID()))
	}

	m.monitoring.recordAllocation(allocation.Type, m.clock.Now())
	if m.instruments != nil {
		m.instruments.AllocationsGranted.Inc(ctx,
			telemetry.AttrResourceType.String(allocation.Type.String()),
			telemetry.AttrProvider.String(allocation.ProviderID))
	}
	log.Ctx(ctx).Debug().
		Str(logger.AllocationField(), allocation.ID).
		Str("provider", allocation.ProviderID).
		Int64("granted", allocation.Amount).
		Msg("allocation granted")

	return models.AllocationResult{
		Successful:   true,
		AllocationID: allocation.ID,
		Type:         allocation.Type,
		Amount:       allocation.Amount,
		ExpiresAt:    allocation.ExpiresAt,
		Warnings:     warnings,
	}, nil
}

func checkPolicy(request models.AllocationRequest, policy models.AllocationPolicy) goverrors.Error {
	if policy.MinPerRequest > 0 && request.Amount < policy.MinPerRequest {
		return goverrors.New("%s request of %d is below the minimum of %d per request",
			request.Type, request.Amount, policy.MinPerRequest).
			WithCode(goverrors.BadRequest)
	}
	if policy.MaxPerRequest > 0 && request.Amount > policy.MaxPerRequest {
		return goverrors.New("%s request of %d is above the maximum of %d per request",
			request.Type, request.Amount, policy.MaxPerRequest).
			WithCode(goverrors.LimitExceeded)
	}
	return nil
}

// grantedAmount accepts a provider clamping the grant below the request,
// never above it. Zero means the full request was granted.
func grantedAmount(requested, granted int64) int64 {
	if granted <= 0 || granted > requested {
		return requested
	}
	return granted
}

// selectProvider queries the availability of every candidate concurrently
// and returns the healthy one with the greatest headroom that can serve the
// whole request. Ties go to the provider registered first.
func (m *Manager) selectProvider(
	ctx context.Context, candidates []provider.Provider, request models.AllocationRequest) (provider.Provider, goverrors.Error) {
	available := make([]int64, len(candidates))
	var g errgroup.Group
	for i, p := range candidates {
		i, p := i, p
		available[i] = -1
		g.Go(func() error {
			availability, err := p.GetAvailability(ctx)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("provider", p.ID()).Msg("provider availability query failed")
				return nil
			}
			if !availability.Healthy {
				log.Ctx(ctx).Debug().Str("provider", p.ID()).Msg("skipping unhealthy provider")
				return nil
			}
			available[i] = availability.AvailableFor(request.Type)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, goverrors.Wrap(err, "querying provider availability")
	}

	best := -1
	for i, a := range available {
		if a >= request.Amount && (best < 0 || a > available[best]) {
			best = i
		}
	}
	if best < 0 {
		return nil, goverrors.New("no healthy provider has %s of %s available",
			formatAmount(request.Type, request.Amount), request.Type).
			WithCode(goverrors.NoProviderAvailable).
			WithRetryable()
	}
	return candidates[best], nil
}

func (m *Manager) reject(ctx context.Context, request models.AllocationRequest, err goverrors.Error) (models.AllocationResult, error) {
	err = err.WithComponent(errComponent)
	m.monitoring.recordRejection(request.Type, m.clock.Now())
	if m.instruments != nil {
		m.instruments.AllocationsRejected.Inc(ctx,
			telemetry.AttrResourceType.String(request.Type.String()),
			telemetry.AttrCode.String(err.Code().String()))
	}
	log.Ctx(ctx).Debug().Str("code", err.Code().String()).Msg(err.Error())
	return models.NewRejectedAllocation(request.Type, err.Code().String(), err.Error()), err
}
