package util

import (
	"context"

	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/system"
)

type contextKey struct {
	name string
}

var (
	SystemManagerKey = contextKey{name: "context key for storing the system manager"}
	ConfigKey        = contextKey{name: "context key for storing the loaded configuration"}
)

func GetCleanupManager(ctx context.Context) *system.CleanupManager {
	return ctx.Value(SystemManagerKey).(*system.CleanupManager)
}

func GetConfig(ctx context.Context) types.Governor {
	return ctx.Value(ConfigKey).(types.Governor)
}
