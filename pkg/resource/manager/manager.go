// Package manager implements the resource manager: the allocation ledger,
// limit enforcement and coordination of the registered resource providers.
//
// Allocation and release are serialized behind a single lock shared by every
// resource type, and provider calls happen while holding it. Requests are
// served in arrival order; request priority is recorded, not scheduled on.
package manager

import (
	"context"
	"fmt"
	realsync "sync"
	"time"

	"github.com/benbjohnson/clock"
	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

const (
	errComponent = "ResourceManager"

	DefaultMonitoringInterval = 30 * time.Second
	DefaultAlertTTL           = 5 * time.Minute
	DefaultScaleUpPercent     = 90
	DefaultScaleDownPercent   = 20

	// softLimitWarnInterval throttles the soft limit warning log per resource type.
	softLimitWarnInterval = time.Minute
)

type Params struct {
	// Limits is the limit table. Types missing from it use DefaultLimits.
	Limits    models.ResourceLimits
	Providers []provider.Provider
	Clock     clock.Clock
	// Instruments records metrics when set.
	Instruments *telemetry.Instruments

	MonitoringInterval time.Duration
	AlertTTL           time.Duration
	ScaleUpPercent     float64
	ScaleDownPercent   float64
}

// Manager is the single source of truth for what is currently allocated.
type Manager struct {
	clock       clock.Clock
	limits      models.ResourceLimits
	instruments *telemetry.Instruments

	monitoringInterval time.Duration
	alertTTL           time.Duration
	scaleUpPercent     float64
	scaleDownPercent   float64

	// allocLock serializes allocate and release. A weighted semaphore is used
	// instead of a mutex so waiting can be cancelled.
	allocLock *semaphore.Weighted
	ledger    *ledger

	providersMu sync.RWMutex
	providers   []provider.Provider

	monitoring *monitoringState

	softWarnMu sync.Mutex
	softWarn   map[models.ResourceType]*rate.Sometimes

	// background monitoring
	mu      realsync.Mutex
	running bool
	stopCh  chan struct{}
	tasks   realsync.WaitGroup
}

func New(params Params) (*Manager, error) {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	limits := DefaultLimits()
	for t, l := range params.Limits {
		limits[t] = l
	}
	if err := limits.Validate(); err != nil {
		return nil, goverrors.Wrap(err, "invalid resource limits").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	if params.MonitoringInterval <= 0 {
		params.MonitoringInterval = DefaultMonitoringInterval
	}
	if params.AlertTTL <= 0 {
		params.AlertTTL = DefaultAlertTTL
	}
	if params.ScaleUpPercent <= 0 {
		params.ScaleUpPercent = DefaultScaleUpPercent
	}
	if params.ScaleDownPercent <= 0 {
		params.ScaleDownPercent = DefaultScaleDownPercent
	}
	if params.ScaleDownPercent >= params.ScaleUpPercent {
		return nil, goverrors.New("scale down threshold %.0f%% must be below scale up threshold %.0f%%",
			params.ScaleDownPercent, params.ScaleUpPercent).
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}

	m := &Manager{
		clock:              params.Clock,
		limits:             limits,
		instruments:        params.Instruments,
		monitoringInterval: params.MonitoringInterval,
		alertTTL:           params.AlertTTL,
		scaleUpPercent:     params.ScaleUpPercent,
		scaleDownPercent:   params.ScaleDownPercent,
		allocLock:          semaphore.NewWeighted(1),
		ledger:             newLedger(),
		monitoring:         newMonitoringState(),
		softWarn:           make(map[models.ResourceType]*rate.Sometimes),
	}
	m.providersMu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "ResourceManager.providersMu",
	})
	if m.instruments != nil {
		if err := m.registerGauges(); err != nil {
			return nil, goverrors.Wrap(err, "registering resource gauges").
				WithCode(goverrors.Internal).
				WithComponent(errComponent)
		}
	}
	for _, p := range params.Providers {
		if err := m.RegisterProvider(context.Background(), p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterProvider adds a provider to the coordination pool.
func (m *Manager) RegisterProvider(ctx context.Context, p provider.Provider) error {
	if err := validate.NotNil(p, "provider cannot be nil"); err != nil {
		return goverrors.Wrap(err, "registering provider").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	m.providersMu.Lock()
	defer m.providersMu.Unlock()
	for _, existing := range m.providers {
		if existing.ID() == p.ID() {
			return goverrors.New("provider %s already registered", p.ID()).
				WithCode(goverrors.AlreadyExists).
				WithComponent(errComponent)
		}
	}
	m.providers = append(m.providers, p)
	log.Ctx(ctx).Info().
		Str("provider", p.ID()).
		Strs("types", typeNames(p.SupportedResourceTypes())).
		Msg("registered resource provider")
	return nil
}

// UnregisterProvider removes a provider from the pool. Its outstanding
// allocations stay in the ledger until they are released.
func (m *Manager) UnregisterProvider(ctx context.Context, providerID string) error {
	m.providersMu.Lock()
	defer m.providersMu.Unlock()
	for i, p := range m.providers {
		if p.ID() == providerID {
			m.providers = append(m.providers[:i:i], m.providers[i+1:]...)
			log.Ctx(ctx).Info().Str("provider", providerID).Msg("unregistered resource provider")
			return nil
		}
	}
	return goverrors.New("provider %s not registered", providerID).
		WithCode(goverrors.NotFound).
		WithComponent(errComponent)
}

// Providers returns the registered providers in registration order.
func (m *Manager) Providers() []provider.Provider {
	m.providersMu.RLock()
	defer m.providersMu.RUnlock()
	out := make([]provider.Provider, len(m.providers))
	copy(out, m.providers)
	return out
}

func (m *Manager) providerByID(id string) provider.Provider {
	m.providersMu.RLock()
	defer m.providersMu.RUnlock()
	for _, p := range m.providers {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

func (m *Manager) candidates(t models.ResourceType) []provider.Provider {
	m.providersMu.RLock()
	defer m.providersMu.RUnlock()
	var out []provider.Provider
	for _, p := range m.providers {
		if provider.Supports(p, t) {
			out = append(out, p)
		}
	}
	return out
}

// GetLimits returns a copy of the limit table.
func (m *Manager) GetLimits(context.Context) models.ResourceLimits {
	return m.limits.Copy()
}

// Allocation returns the ledger record of an active allocation.
func (m *Manager) Allocation(id string) (models.ResourceAllocation, bool) {
	return m.ledger.get(id)
}

func (m *Manager) softLimitWarning(t models.ResourceType) *rate.Sometimes {
	m.softWarnMu.Lock()
	defer m.softWarnMu.Unlock()
	s, ok := m.softWarn[t]
	if !ok {
		s = &rate.Sometimes{First: 1, Interval: softLimitWarnInterval}
		m.softWarn[t] = s
	}
	return s
}

func typeNames(types []models.ResourceType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}

func formatAmount(t models.ResourceType, amount int64) string {
	return fmt.Sprintf("%d %s", amount, t.Unit())
}
