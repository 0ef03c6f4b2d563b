package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
)

const poolComponent = "PoolProvider"

type PoolParams struct {
	ID string
	// Capacity is the total amount the pool can grant per resource type.
	Capacity map[models.ResourceType]int64
	// AllowPartial grants whatever is left when a request exceeds the remaining capacity.
	AllowPartial bool
	Clock        clock.Clock
}

type grant struct {
	resourceType models.ResourceType
	amount       int64
}

// PoolProvider grants from a fixed capacity per resource type and keeps
// track of its own grants. It fits quota style resources such as GPU
// slots, AI model slots or a network budget.
type PoolProvider struct {
	id           string
	allowPartial bool
	clock        clock.Clock

	mu       sync.RWMutex
	capacity map[models.ResourceType]int64
	used     map[models.ResourceType]int64
	grants   map[string]grant
	healthy  bool
}

func NewPoolProvider(params PoolParams) (*PoolProvider, error) {
	err := errors.Join(
		validate.NotBlank(params.ID, "pool provider id cannot be blank"),
		validate.True(len(params.Capacity) > 0, "pool provider %s has no capacity", params.ID),
	)
	for t, amount := range params.Capacity {
		err = errors.Join(err,
			validate.True(t.IsValid(), "pool provider %s: unknown resource type %q", params.ID, t),
			validate.IsGreaterOrEqualToZero(amount, "pool provider %s: capacity of %s must not be negative", params.ID, t),
		)
	}
	if err != nil {
		return nil, err
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}

	p := &PoolProvider{
		id:           params.ID,
		allowPartial: params.AllowPartial,
		clock:        params.Clock,
		capacity:     lo.Assign(params.Capacity),
		used:         make(map[models.ResourceType]int64, len(params.Capacity)),
		grants:       make(map[string]grant),
		healthy:      true,
	}
	p.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        fmt.Sprintf("PoolProvider.%s.mu", params.ID),
	})
	return p, nil
}

func (p *PoolProvider) ID() string {
	return p.id
}

func (p *PoolProvider) SupportedResourceTypes() []models.ResourceType {
	p.mu.RLock()
	defer p.mu.RUnlock()
	// keep the canonical order so callers get stable output
	return lo.Filter(models.AllResourceTypes(), func(t models.ResourceType, _ int) bool {
		_, ok := p.capacity[t]
		return ok
	})
}

func (p *PoolProvider) GetAvailability(ctx context.Context) (Availability, error) {
	if err := ctx.Err(); err != nil {
		return Availability{}, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	available := make(map[models.ResourceType]int64, len(p.capacity))
	for t, c := range p.capacity {
		available[t] = max(c-p.used[t], 0)
	}
	return Availability{Healthy: p.healthy, Available: available}, nil
}

func (p *PoolProvider) Allocate(ctx context.Context, request models.AllocationRequest) (AllocateResponse, error) {
	if err := ctx.Err(); err != nil {
		return AllocateResponse{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.healthy {
		return AllocateResponse{ErrorMessage: fmt.Sprintf("provider %s is unhealthy", p.id)}, nil
	}
	capacity, ok := p.capacity[request.Type]
	if !ok {
		return AllocateResponse{ErrorMessage: fmt.Sprintf("provider %s does not offer %s", p.id, request.Type)}, nil
	}

	amount := request.Amount
	remaining := capacity - p.used[request.Type]
	if amount > remaining {
		if !p.allowPartial || remaining <= 0 {
			return AllocateResponse{
				ErrorMessage: fmt.Sprintf("insufficient %s: requested %d, remaining %d", request.Type, amount, remaining),
			}, nil
		}
		amount = remaining
	}

	id := uuid.NewString()
	p.used[request.Type] += amount
	p.grants[id] = grant{resourceType: request.Type, amount: amount}

	resp := AllocateResponse{
		Successful:   true,
		AllocationID: id,
		Amount:       amount,
	}
	if request.Duration > 0 {
		resp.ExpiresAt = lo.ToPtr(p.clock.Now().Add(request.Duration))
	}
	log.Ctx(ctx).Trace().Str("provider", p.id).Str("allocation", id).
		Msgf("granted %d of %s", amount, request.Type)
	return resp, nil
}

func (p *PoolProvider) Release(ctx context.Context, allocationID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.grants[allocationID]
	if !ok {
		return goverrors.New("allocation %s is not held by provider %s", allocationID, p.id).
			WithCode(goverrors.NotFound).
			WithComponent(poolComponent)
	}
	delete(p.grants, allocationID)
	p.used[g.resourceType] -= g.amount
	return nil
}

// SetHealthy marks the provider healthy or unhealthy. An unhealthy provider
// refuses new allocations but still accepts releases.
func (p *PoolProvider) SetHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// SetCapacity replaces the capacity of t. Outstanding grants are kept, so
// availability may drop to zero until they are released.
func (p *PoolProvider) SetCapacity(t models.ResourceType, capacity int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.capacity[t] = capacity
}

// Used returns the granted amount per resource type.
func (p *PoolProvider) Used() map[models.ResourceType]int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.Assign(p.used)
}

// GrantCount returns the number of outstanding grants.
func (p *PoolProvider) GrantCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.grants)
}

// compile-time check that the provider implements the interface
var _ Provider = (*PoolProvider)(nil)
