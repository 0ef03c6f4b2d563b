package serve

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/bacalhau-project/governor/cmd/util"
	"github.com/bacalhau-project/governor/pkg/system"
	"github.com/bacalhau-project/governor/pkg/telemetry"
	"github.com/bacalhau-project/governor/pkg/version"
)

func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the governor until interrupted",
		Long: `Run the sampler, the monitoring loop and the optimizer in the foreground.
When Metrics.Enabled is set the instruments are served in the Prometheus
format on Metrics.Address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cm := util.GetCleanupManager(ctx)
	cfg := util.GetConfig(ctx)

	var instruments *telemetry.Instruments
	if cfg.Metrics.Enabled {
		provider, err := telemetry.SetupPrometheus(version.Get().GitVersion)
		if err != nil {
			return err
		}
		cm.RegisterCallbackWithContext(provider.Cleanup)

		instruments, err = telemetry.NewInstruments(otel.GetMeterProvider())
		if err != nil {
			return fmt.Errorf("creating instruments: %w", err)
		}
		go func() {
			if err := system.ListenAndServeMetrics(ctx, cm, cfg.Metrics.Address, provider.Handler()); err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	gov, err := util.NewGovernor(ctx, instruments)
	if err != nil {
		return err
	}
	if err := gov.Start(ctx); err != nil {
		return err
	}
	cm.RegisterCallbackWithContext(gov.Stop)

	log.Ctx(ctx).Info().
		Int("providers", len(gov.Manager().Providers())).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("governor running")
	<-ctx.Done()
	log.Ctx(ctx).Info().Msg("shutting down")
	return nil
}
