package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const metricsReadHeaderTimeout = 5 * time.Second

// ListenAndServeMetrics serves handler on /metrics at addr until the cleanup
// manager shuts it down. It blocks, so callers usually run it in a goroutine.
func ListenAndServeMetrics(ctx context.Context, cm *CleanupManager, addr string, handler http.Handler) error {
	sm := http.NewServeMux()
	sm.Handle("/metrics", handler)

	srv := http.Server{
		Addr:              addr,
		Handler:           sm,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	cm.RegisterCallbackWithContext(func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})

	log.Ctx(ctx).Debug().Msgf("Starting metrics server on %s...", addr)
	if err := srv.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Ctx(ctx).Debug().Msg("Metrics server stopped.")
		} else {
			return fmt.Errorf("metrics server failed to ListenAndServe: %w", err)
		}
	}

	return nil
}
