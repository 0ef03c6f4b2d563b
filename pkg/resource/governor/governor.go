// Package governor assembles the resource monitor, manager and optimizer
// from configuration and drives their background loops.
package governor

import (
	"context"
	"fmt"
	realsync "sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/config"
	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/manager"
	"github.com/bacalhau-project/governor/pkg/resource/monitor"
	"github.com/bacalhau-project/governor/pkg/resource/optimizer"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

const errComponent = "Governor"

type Params struct {
	Config types.Governor
	// Providers are registered after the providers described by Config.
	Providers []provider.Provider
	// Rules replaces the rule registry derived from Config.
	Rules       *optimizer.RuleRegistry
	Clock       clock.Clock
	Instruments *telemetry.Instruments
	// Monitor replaces the host monitor, mostly for tests.
	Monitor monitor.UsageSource
}

// Governor owns one instance of every resource component.
type Governor struct {
	clock    clock.Clock
	interval time.Duration

	monitor   monitor.UsageSource
	sampler   *monitor.Sampler
	manager   *manager.Manager
	optimizer *optimizer.Optimizer

	mu      realsync.Mutex
	running bool
	stopCh  chan struct{}
	tasks   realsync.WaitGroup
}

func New(ctx context.Context, params Params) (*Governor, error) {
	cfg := params.Config
	if err := cfg.Validate(); err != nil {
		return nil, goverrors.Wrap(err, "invalid governor configuration").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}

	source := params.Monitor
	if source == nil {
		source = monitor.New(monitor.Params{
			Clock:           params.Clock,
			DiskPath:        cfg.Monitor.DiskPath,
			CPUSampleWindow: cfg.Monitor.CPUSampleWindow.AsTimeDuration(),
			HeapMultiplier:  cfg.Monitor.HeapMultiplier,
			Instruments:     params.Instruments,
		})
	}
	sampler, err := monitor.NewSampler(monitor.SamplerParams{
		Source:   source,
		Interval: cfg.Monitor.SampleInterval.AsTimeDuration(),
		Clock:    params.Clock,
	})
	if err != nil {
		return nil, err
	}

	providers, err := provider.FromConfig(ctx, cfg.Providers, params.Clock)
	if err != nil {
		return nil, goverrors.Wrap(err, "creating resource providers").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	providers = append(providers, params.Providers...)

	limits, err := config.ResolveLimits(manager.DefaultLimits(), cfg.Manager.Limits)
	if err != nil {
		return nil, goverrors.Wrap(err, "resolving resource limits").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	mgr, err := manager.New(manager.Params{
		Limits:             limits,
		Providers:          providers,
		Clock:              params.Clock,
		Instruments:        params.Instruments,
		MonitoringInterval: cfg.Manager.MonitoringInterval.AsTimeDuration(),
		AlertTTL:           cfg.Manager.AlertTTL.AsTimeDuration(),
		ScaleUpPercent:     cfg.Manager.ScaleUpPercent,
		ScaleDownPercent:   cfg.Manager.ScaleDownPercent,
	})
	if err != nil {
		return nil, err
	}

	rules := params.Rules
	if rules == nil {
		if cfg.Optimizer.DisableDefaultRules {
			rules, err = optimizer.NewRuleRegistry(nil)
		} else {
			rules = optimizer.NewDefaultRuleRegistry()
		}
		if err != nil {
			return nil, err
		}
	}
	opt, err := optimizer.New(optimizer.Params{
		Source:      sampler,
		Ledger:      mgr,
		Rules:       rules,
		HistorySize: cfg.Optimizer.HistorySize,
		Throttling:  ThrottlingPolicy(cfg.Optimizer.Throttling),
		Clock:       params.Clock,
		Instruments: params.Instruments,
	})
	if err != nil {
		return nil, err
	}

	return &Governor{
		clock:     params.Clock,
		interval:  cfg.Optimizer.Interval.AsTimeDuration(),
		monitor:   source,
		sampler:   sampler,
		manager:   mgr,
		optimizer: opt,
	}, nil
}

// ThrottlingPolicy converts the configured throttling ladder.
func ThrottlingPolicy(cfg types.Throttling) optimizer.ThrottlingPolicy {
	return optimizer.ThrottlingPolicy{
		CPUHighPercent:   cfg.CPUHighPercent,
		CPUMediumPercent: cfg.CPUMediumPercent,
		CPULowPercent:    cfg.CPULowPercent,
		MemoryPercent:    cfg.MemoryPercent,
		HighDelay:        cfg.HighDelay.AsTimeDuration(),
		MediumDelay:      cfg.MediumDelay.AsTimeDuration(),
		LowDelay:         cfg.LowDelay.AsTimeDuration(),
		MemoryDelay:      cfg.MemoryDelay.AsTimeDuration(),
	}
}

func (g *Governor) Manager() *manager.Manager       { return g.manager }
func (g *Governor) Optimizer() *optimizer.Optimizer { return g.optimizer }
func (g *Governor) Sampler() *monitor.Sampler       { return g.sampler }

// Monitor returns the uncached host monitor.
func (g *Governor) Monitor() monitor.UsageSource { return g.monitor }

// TickResult summarises one governor tick.
type TickResult struct {
	Usage           models.SystemResourceUsage          `json:"Usage"`
	Monitoring      models.ResourceMonitoringInfo       `json:"Monitoring"`
	Recommendations []models.OptimizationRecommendation `json:"Recommendations"`
	Ledger          models.ResourceOptimizationResult   `json:"Ledger"`
}

// Tick refreshes the host sample, runs a monitoring refresh and both the
// rule based and the ledger based optimization.
func (g *Governor) Tick(ctx context.Context) TickResult {
	result := TickResult{
		Usage:      g.sampler.Refresh(ctx),
		Monitoring: g.manager.RefreshMonitoring(ctx),
	}
	result.Recommendations = g.optimizer.Optimize(ctx)
	result.Ledger = g.manager.Optimize(ctx)

	log.Ctx(ctx).Info().
		Float64("cpu", result.Usage.CPUPercent).
		Float64("memory", result.Usage.Memory.UtilizationPercent()).
		Str("health", result.Monitoring.Health.Overall.String()).
		Int("alerts", len(result.Monitoring.Alerts)).
		Int("recommendations", len(result.Recommendations)+len(result.Ledger.Recommendations)).
		Msg("governor tick")
	return result
}

// Start starts the sampler and the manager monitoring loop, and runs the
// optimizer every optimizer interval.
func (g *Governor) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return goverrors.New("governor already running").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}

	if err := g.sampler.Start(ctx); err != nil {
		return err
	}
	if err := g.manager.Start(ctx); err != nil {
		_ = g.sampler.Stop(ctx)
		return err
	}

	g.stopCh = make(chan struct{})
	stopCh := g.stopCh
	g.tasks.Add(1)
	go func() {
		defer g.tasks.Done()
		ticker := g.clock.Ticker(g.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				g.Tick(ctx)
			}
		}
	}()
	g.running = true
	log.Ctx(ctx).Info().Dur("interval", g.interval).Msg("governor started")
	return nil
}

// Stop stops every background loop.
func (g *Governor) Stop(ctx context.Context) error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	close(g.stopCh)
	g.mu.Unlock()

	var errs *multierror.Error
	done := make(chan struct{})
	go func() {
		g.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = multierror.Append(errs, fmt.Errorf("waiting for governor loop: %w", ctx.Err()))
	}
	if err := g.manager.Stop(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stopping resource manager: %w", err))
	}
	if err := g.sampler.Stop(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stopping sampler: %w", err))
	}
	return errs.ErrorOrNil()
}

func (g *Governor) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
