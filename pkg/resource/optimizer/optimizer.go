// Package optimizer turns live usage into guidance: rule based
// recommendations and request throttling. It never allocates anything.
package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/monitor"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

const (
	DefaultHistorySize = 100

	errComponent = "ResourceOptimizer"
)

// UsageView is the ledger view of the resource manager. It supplies usage
// for resource types the host sample doesn't cover.
type UsageView interface {
	GetUsage(ctx context.Context) models.ResourceUsage
}

type Params struct {
	// Source supplies host samples. Required.
	Source monitor.UsageSource
	// Ledger is optional.
	Ledger UsageView
	// Rules defaults to a registry holding DefaultRules.
	Rules       *RuleRegistry
	HistorySize int
	// Throttling defaults to DefaultThrottlingPolicy when zero.
	Throttling  ThrottlingPolicy
	Clock       clock.Clock
	Instruments *telemetry.Instruments
}

type Optimizer struct {
	source      monitor.UsageSource
	ledger      UsageView
	rules       *RuleRegistry
	historySize int
	throttling  ThrottlingPolicy
	clock       clock.Clock
	instruments *telemetry.Instruments

	historyMu sync.RWMutex
	history   []models.OptimizationHistoryEntry
}

func New(params Params) (*Optimizer, error) {
	if err := validate.NotNil(params.Source, "optimizer requires a usage source"); err != nil {
		return nil, goverrors.Wrap(err, "creating optimizer").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	if params.Rules == nil {
		params.Rules = NewDefaultRuleRegistry()
	}
	if params.HistorySize <= 0 {
		params.HistorySize = DefaultHistorySize
	}
	if params.Throttling == (ThrottlingPolicy{}) {
		params.Throttling = DefaultThrottlingPolicy()
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	o := &Optimizer{
		source:      params.Source,
		ledger:      params.Ledger,
		rules:       params.Rules,
		historySize: params.HistorySize,
		throttling:  params.Throttling,
		clock:       params.Clock,
		instruments: params.Instruments,
	}
	o.historyMu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "Optimizer.historyMu",
	})
	return o, nil
}

// Rules returns the rule registry the optimizer evaluates.
func (o *Optimizer) Rules() *RuleRegistry {
	return o.rules
}

func (o *Optimizer) AddOptimizationRule(id string, rule Rule) error {
	return o.rules.Add(id, rule)
}

func (o *Optimizer) RemoveOptimizationRule(id string) bool {
	return o.rules.Remove(id)
}

// Optimize samples host usage, evaluates every rule against it and records
// the run in the history. Rules that fail or panic are skipped. It never
// fails: an internal fault yields an empty recommendation list.
func (o *Optimizer) Optimize(ctx context.Context) (recs []models.OptimizationRecommendation) {
	ctx, span := telemetry.Span(ctx, errComponent, "Optimize")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			log.Ctx(ctx).Error().Interface("panic", r).Msg("optimization run failed")
			recs = []models.OptimizationRecommendation{}
		}
	}()

	usage := o.currentUsage(ctx)
	recs = []models.OptimizationRecommendation{}
	for _, rule := range o.rules.List() {
		rec, triggered, err := evaluate(ctx, rule, usage)
		if err != nil {
			err = goverrors.Wrap(err, "evaluating rule %s", rule.ID).
				WithCode(goverrors.RuleEvaluationFailed).
				WithComponent(errComponent)
			log.Ctx(ctx).Warn().Err(err).
				Str("code", goverrors.RuleEvaluationFailed.String()).
				Str("rule", rule.ID).
				Msg("skipping optimization rule")
			if o.instruments != nil {
				o.instruments.RuleFailures.Inc(ctx, telemetry.AttrRule.String(rule.ID))
			}
			continue
		}
		if triggered {
			recs = append(recs, rec)
		}
	}
	models.SortRecommendations(recs)

	o.record(models.OptimizationHistoryEntry{
		Timestamp:       o.clock.Now(),
		Usage:           usage,
		Recommendations: recs,
	}.Copy())
	if o.instruments != nil && len(recs) > 0 {
		o.instruments.Recommendations.Add(ctx, int64(len(recs)))
	}
	log.Ctx(ctx).Debug().Int("recommendations", len(recs)).Msg("optimization run complete")
	return recs
}

func evaluate(ctx context.Context, rule RegisteredRule, usage models.ResourceUsage) (
	rec models.OptimizationRecommendation, triggered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	triggered, err = rule.Condition(ctx, usage)
	if err != nil || !triggered {
		return rec, false, err
	}
	rec = rule.Action(usage)
	if rec.Rule == "" {
		rec.Rule = rule.ID
	}
	return rec, true, nil
}

// currentUsage converts the host sample into the ResourceUsage shape and
// fills the resource types the host sample doesn't measure from the ledger.
func (o *Optimizer) currentUsage(ctx context.Context) models.ResourceUsage {
	usage := o.source.GetResourceUsage(ctx).ToResourceUsage()
	if usage.Timestamp.IsZero() {
		usage.Timestamp = o.clock.Now()
	}
	if o.ledger == nil {
		return usage
	}
	ledger := o.ledger.GetUsage(ctx)
	for _, t := range models.AllResourceTypes() {
		if usage.Allocated[t]+usage.Available[t] > 0 {
			continue
		}
		usage.Set(t, ledger.Allocated[t], ledger.Available[t])
	}
	usage.ActiveAllocations = ledger.ActiveAllocations
	return usage
}

func (o *Optimizer) record(entry models.OptimizationHistoryEntry) {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()
	o.history = append(o.history, entry)
	if overflow := len(o.history) - o.historySize; overflow > 0 {
		trimmed := make([]models.OptimizationHistoryEntry, o.historySize)
		copy(trimmed, o.history[overflow:])
		o.history = trimmed
	}
}

// GetOptimizationHistory returns copies of the retained runs, oldest first.
func (o *Optimizer) GetOptimizationHistory() []models.OptimizationHistoryEntry {
	o.historyMu.RLock()
	defer o.historyMu.RUnlock()
	out := make([]models.OptimizationHistoryEntry, len(o.history))
	for i, entry := range o.history {
		out[i] = entry.Copy()
	}
	return out
}

// CalculateThrottling returns admission guidance for request from the
// current host load.
func (o *Optimizer) CalculateThrottling(ctx context.Context, request models.ThrottlingRequest) models.ThrottlingResult {
	result := o.throttling.Evaluate(o.source.GetResourceUsage(ctx))
	if o.instruments != nil {
		o.instruments.ThrottleDecisions.Inc(ctx, telemetry.AttrLevel.String(result.Level.String()))
	}
	if result.ShouldThrottle {
		log.Ctx(ctx).Debug().
			Str("requester", request.RequesterID).
			Str("level", result.Level.String()).
			Dur("delay", result.RecommendedDelay).
			Msg(result.Reason)
	}
	return result
}
