package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"

	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
)

// Default rule identifiers.
const (
	RuleHighCPUUsage     = "high-cpu-usage"
	RuleHighMemoryUsage  = "high-memory-usage"
	RuleHighStorageUsage = "high-storage-usage"
)

// Condition decides whether a rule applies to a usage snapshot. It must not
// have side effects.
type Condition func(ctx context.Context, usage models.ResourceUsage) (bool, error)

// Action builds the recommendation of a rule whose condition holds.
type Action func(usage models.ResourceUsage) models.OptimizationRecommendation

type Rule struct {
	Name        string
	Description string
	Condition   Condition
	Action      Action
}

func (r Rule) Validate() error {
	return errors.Join(
		validate.NotBlank(r.Name, "rule name cannot be blank"),
		validate.NotNil(r.Condition, "rule %s has no condition", r.Name),
		validate.NotNil(r.Action, "rule %s has no action", r.Name),
	)
}

// RegisteredRule is a rule together with the identifier it was registered under.
type RegisteredRule struct {
	ID string
	Rule
}

// RuleRegistry holds the optimization rules keyed by identifier.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRuleRegistry returns a registry holding the given rules.
func NewRuleRegistry(rules map[string]Rule) (*RuleRegistry, error) {
	r := &RuleRegistry{rules: make(map[string]Rule, len(rules))}
	r.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "RuleRegistry.mu",
	})
	for id, rule := range rules {
		if err := r.Add(id, rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefaultRuleRegistry returns a registry holding DefaultRules.
func NewDefaultRuleRegistry() *RuleRegistry {
	r, err := NewRuleRegistry(DefaultRules())
	if err != nil {
		panic(err) // default rules are static
	}
	return r
}

// Add registers rule under id, replacing any rule already registered there.
func (r *RuleRegistry) Add(id string, rule Rule) error {
	err := errors.Join(validate.NotBlank(id, "rule id cannot be blank"), rule.Validate())
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[id] = rule
	return nil
}

// Remove unregisters the rule with id and reports whether it existed.
func (r *RuleRegistry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rules[id]
	delete(r.rules, id)
	return ok
}

func (r *RuleRegistry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// List returns the registered rules ordered by id.
func (r *RuleRegistry) List() []RegisteredRule {
	r.mu.RLock()
	out := make([]RegisteredRule, 0, len(r.rules))
	for id, rule := range r.rules {
		out = append(out, RegisteredRule{ID: id, Rule: rule})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *RuleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// UtilizationAbove returns a condition that holds when the utilization of t exceeds threshold percent.
func UtilizationAbove(t models.ResourceType, threshold float64) Condition {
	return func(_ context.Context, usage models.ResourceUsage) (bool, error) {
		return usage.UtilizationOf(t) > threshold, nil
	}
}

// DefaultRules returns the rules every optimizer starts with unless disabled.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		RuleHighCPUUsage: {
			Name:        "High CPU usage",
			Description: "CPU utilization above 80%",
			Condition:   UtilizationAbove(models.ResourceTypeCPU, 80),
			Action: func(usage models.ResourceUsage) models.OptimizationRecommendation {
				return models.OptimizationRecommendation{
					Type:         models.RecommendationReduceLoad,
					ResourceType: models.ResourceTypeCPU,
					Message: fmt.Sprintf("CPU utilization is %.1f%%, reduce concurrent work or defer low priority tasks",
						usage.UtilizationOf(models.ResourceTypeCPU)),
					Impact:   models.ImpactHigh,
					Priority: 1,
				}
			},
		},
		RuleHighMemoryUsage: {
			Name:        "High memory usage",
			Description: "Memory utilization above 85%",
			Condition:   UtilizationAbove(models.ResourceTypeMemory, 85),
			Action: func(usage models.ResourceUsage) models.OptimizationRecommendation {
				return models.OptimizationRecommendation{
					Type:         models.RecommendationFreeMemory,
					ResourceType: models.ResourceTypeMemory,
					Message: fmt.Sprintf("memory utilization is %.1f%%, release caches or unused allocations",
						usage.UtilizationOf(models.ResourceTypeMemory)),
					Impact:   models.ImpactHigh,
					Priority: 1,
				}
			},
		},
		RuleHighStorageUsage: {
			Name:        "High storage usage",
			Description: "Storage utilization above 90%",
			Condition:   UtilizationAbove(models.ResourceTypeStorage, 90),
			Action: func(usage models.ResourceUsage) models.OptimizationRecommendation {
				return models.OptimizationRecommendation{
					Type:         models.RecommendationCleanupStorage,
					ResourceType: models.ResourceTypeStorage,
					Message: fmt.Sprintf("storage utilization is %.1f%%, clean up temporary files and artifacts",
						usage.UtilizationOf(models.ResourceTypeStorage)),
					Impact:   models.ImpactMedium,
					Priority: 2,
				}
			},
		},
	}
}
