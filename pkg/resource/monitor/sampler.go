package monitor

import (
	"context"
	realsync "sync"
	"time"

	"github.com/benbjohnson/clock"
	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
)

const DefaultSampleInterval = 30 * time.Second

type SamplerParams struct {
	Source   UsageSource
	Interval time.Duration
	Clock    clock.Clock
}

// Sampler refreshes a host snapshot in the background and serves the latest
// one, so callers on a hot path don't pay for the CPU sample window.
type Sampler struct {
	source   UsageSource
	interval time.Duration
	clock    clock.Clock

	mu      sync.RWMutex
	latest  models.SystemResourceUsage
	sampled bool
	running bool
	stopCh  chan struct{}
	tasks   realsync.WaitGroup
}

func NewSampler(params SamplerParams) (*Sampler, error) {
	if err := validate.NotNil(params.Source, "sampler requires a usage source"); err != nil {
		return nil, goverrors.Wrap(err, "creating sampler").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	if params.Interval <= 0 {
		params.Interval = DefaultSampleInterval
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	s := &Sampler{
		source:   params.Source,
		interval: params.Interval,
		clock:    params.Clock,
	}
	s.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "Sampler.mu",
	})
	return s, nil
}

// Start takes a first sample and then refreshes it every interval until Stop
// is called or ctx is cancelled.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return goverrors.New("sampler already running").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.Refresh(ctx)

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		ticker := s.clock.Ticker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
	return nil
}

// Stop stops the background refresh and waits for it to exit.
func (s *Sampler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh samples the source now and stores the result.
func (s *Sampler) Refresh(ctx context.Context) models.SystemResourceUsage {
	usage := s.source.GetResourceUsage(ctx)
	s.mu.Lock()
	s.latest = usage
	s.sampled = true
	s.mu.Unlock()
	log.Ctx(ctx).Trace().
		Float64("cpu", usage.CPUPercent).
		Float64("memory", usage.Memory.UtilizationPercent()).
		Msg("refreshed host usage sample")
	return usage
}

// Latest returns the most recent sample and whether one has been taken.
func (s *Sampler) Latest() (models.SystemResourceUsage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.sampled
}

// GetResourceUsage returns the cached sample, sampling first if none exists.
func (s *Sampler) GetResourceUsage(ctx context.Context) models.SystemResourceUsage {
	if usage, ok := s.Latest(); ok {
		return usage
	}
	return s.Refresh(ctx)
}

// compile-time check that Sampler implements UsageSource
var _ UsageSource = (*Sampler)(nil)
