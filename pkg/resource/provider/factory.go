package provider

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

// FromConfig builds the providers described by the configuration. The host
// provider, when enabled, comes first.
func FromConfig(ctx context.Context, cfg types.Providers, clk clock.Clock) ([]Provider, error) {
	var providers []Provider
	if cfg.Host.Enabled {
		host, err := NewHostProvider(ctx, HostParams{
			ID:             cfg.Host.ID,
			OfferedPercent: cfg.Host.OfferedPercent,
			DiskPath:       cfg.Host.DiskPath,
			Clock:          clk,
		})
		if err != nil {
			return nil, fmt.Errorf("creating host provider: %w", err)
		}
		providers = append(providers, host)
	}

	for _, poolCfg := range cfg.Pools {
		capacity := make(map[models.ResourceType]int64, len(poolCfg.Capacity))
		for name, quantity := range poolCfg.Capacity {
			rt, err := models.ParseResourceType(name)
			if err != nil {
				return nil, fmt.Errorf("pool %s: %w", poolCfg.ID, err)
			}
			amount, err := types.ParseQuantity(rt, quantity)
			if err != nil {
				return nil, fmt.Errorf("pool %s: %w", poolCfg.ID, err)
			}
			capacity[rt] = amount
		}
		pool, err := NewPoolProvider(PoolParams{
			ID:           poolCfg.ID,
			Capacity:     capacity,
			AllowPartial: poolCfg.AllowPartial,
			Clock:        clk,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, pool)
	}
	return providers, nil
}
