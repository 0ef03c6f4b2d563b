package util

import (
	"context"

	"github.com/bacalhau-project/governor/pkg/resource/governor"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

// NewGovernor builds a governor from the configuration loaded by the root command.
func NewGovernor(ctx context.Context, instruments *telemetry.Instruments) (*governor.Governor, error) {
	return governor.New(ctx, governor.Params{
		Config:      GetConfig(ctx),
		Instruments: instruments,
	})
}
