package config

import (
	"errors"
	"fmt"

	"github.com/imdario/mergo"

	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

// ResolveLimits applies configured overrides on top of the default limit table.
// Fields left unset in an override keep the default value. When only the
// maximum is overridden the soft and hard limits are derived from it with the
// default percentages.
func ResolveLimits(defaults models.ResourceLimits, overrides map[string]types.Limit) (models.ResourceLimits, error) {
	out := defaults.Copy()
	var errs []error
	for name, override := range overrides {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		limit, err := toResourceLimit(rt, override, out[rt])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rt, err))
			continue
		}
		out[rt] = limit
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func toResourceLimit(rt models.ResourceType, override types.Limit, base models.ResourceLimit) (models.ResourceLimit, error) {
	var (
		partial models.ResourceLimit
		err     error
	)
	if partial.Maximum, err = types.ParseQuantity(rt, override.Maximum); err != nil {
		return partial, err
	}
	maximum := base.Maximum
	if partial.Maximum > 0 {
		maximum = partial.Maximum
		derived := models.NewResourceLimit(maximum)
		partial.SoftLimit = derived.SoftLimit
		partial.HardLimit = derived.HardLimit
	}
	if override.SoftLimit != "" {
		if partial.SoftLimit, err = types.ParseQuantityOrPercent(rt, override.SoftLimit, maximum); err != nil {
			return partial, err
		}
	}
	if override.HardLimit != "" {
		if partial.HardLimit, err = types.ParseQuantityOrPercent(rt, override.HardLimit, maximum); err != nil {
			return partial, err
		}
	}
	if partial.Policy.MaxPerRequest, err = types.ParseQuantity(rt, override.MaxPerRequest); err != nil {
		return partial, err
	}
	if partial.Policy.MinPerRequest, err = types.ParseQuantity(rt, override.MinPerRequest); err != nil {
		return partial, err
	}
	partial.Policy.Timeout = override.Timeout.AsTimeDuration()
	partial.Policy.AllowOverAllocation = override.AllowOverAllocation
	partial.Policy.OverAllocationPercent = override.OverAllocationPercent

	if err := mergo.Merge(&partial, base); err != nil {
		return partial, err
	}
	return partial, nil
}
