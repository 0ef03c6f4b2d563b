package manager

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/goverrors"
)

const defaultShutdownTimeout = 10 * time.Second

// Start runs the monitoring tick every monitoring interval until Stop is
// called or ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return goverrors.New("resource manager already running").
			WithCode(goverrors.BadRequest).
			WithComponent(errComponent)
	}
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh

	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		m.monitoringLoop(ctx, stopCh)
	}()

	// Monitor parent context for cancellation
	go func() {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Parent context cancelled, stopping resource manager")
			stopCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := m.Stop(stopCtx); err != nil {
				log.Error().Err(err).Msg("Failed to stop resource manager gracefully")
			}
		case <-stopCh:
			return
		}
	}()

	m.running = true
	return nil
}

// Stop stops the monitoring loop and waits for it to exit.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stopCh)
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running returns whether the monitoring loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) monitoringLoop(ctx context.Context, stopCh <-chan struct{}) {
	ticker := m.clock.Ticker(m.monitoringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			m.RefreshMonitoring(ctx)
		}
	}
}
