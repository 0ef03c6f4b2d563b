package manager

import (
	"context"
	"fmt"
	"sort"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
)

type alertKey struct {
	alertType    models.AlertType
	resourceType models.ResourceType
}

// monitoringState is the metrics table. It has its own lock so monitoring
// ticks never wait on allocation traffic.
type monitoringState struct {
	mu        sync.Mutex
	metrics   map[models.ResourceType]*models.ResourceMetrics
	alerts    map[alertKey]models.ResourceAlert
	health    models.ResourceHealthStatus
	// lastRefresh is zero until the first monitoring tick.
	lastRefresh time.Time
}

func newMonitoringState() *monitoringState {
	s := &monitoringState{
		metrics: make(map[models.ResourceType]*models.ResourceMetrics),
		alerts:  make(map[alertKey]models.ResourceAlert),
		health:  models.ResourceHealthStatus{ByType: map[models.ResourceType]models.HealthStatus{}},
	}
	for _, t := range models.AllResourceTypes() {
		s.metrics[t] = &models.ResourceMetrics{}
		s.health.ByType[t] = models.HealthHealthy
	}
	s.mu.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "ResourceManager.monitoring.mu",
	})
	return s
}

func (s *monitoringState) recordAllocation(t models.ResourceType, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.metrics[t]
	m.AllocationCount++
	m.ActiveAllocations++
	m.LastUpdated = now
}

func (s *monitoringState) recordRelease(t models.ResourceType, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.metrics[t]
	m.ReleaseCount++
	if m.ActiveAllocations > 0 {
		m.ActiveAllocations--
	}
	m.LastUpdated = now
}

func (s *monitoringState) recordRejection(t models.ResourceType, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.metrics[t]
	if !ok {
		// invalid types are rejected before they reach the table
		return
	}
	m.RejectionCount++
	m.LastUpdated = now
}

// observeLocked folds a utilization sample into the running average and peak.
func (s *monitoringState) observeLocked(t models.ResourceType, utilization float64, now time.Time) {
	m := s.metrics[t]
	m.CurrentUtilization = utilization
	m.AverageUtilization = (m.AverageUtilization*float64(m.Samples) + utilization) / float64(m.Samples+1)
	m.Samples++
	if utilization > m.PeakUtilization {
		m.PeakUtilization = utilization
	}
	m.LastUpdated = now
}

// raiseLocked records an alert, keeping the first time it was seen if it is already active.
func (s *monitoringState) raiseLocked(alert models.ResourceAlert) {
	key := alertKey{alert.Type, alert.ResourceType}
	if existing, ok := s.alerts[key]; ok {
		alert.FirstSeen = existing.FirstSeen
	}
	s.alerts[key] = alert
}

func (s *monitoringState) expireLocked(now time.Time, ttl time.Duration) {
	for key, alert := range s.alerts {
		if now.Sub(alert.LastSeen) >= ttl {
			delete(s.alerts, key)
		}
	}
}

func (s *monitoringState) infoLocked(now time.Time) models.ResourceMonitoringInfo {
	info := models.ResourceMonitoringInfo{
		Alerts:  make([]models.ResourceAlert, 0, len(s.alerts)),
		Metrics: make(map[models.ResourceType]models.ResourceMetrics, len(s.metrics)),
		Health: models.ResourceHealthStatus{
			Overall: s.health.Overall,
			ByType:  make(map[models.ResourceType]models.HealthStatus, len(s.health.ByType)),
		},
		Timestamp: now,
	}
	for _, alert := range s.alerts {
		info.Alerts = append(info.Alerts, alert)
	}
	sort.Slice(info.Alerts, func(i, j int) bool {
		if info.Alerts[i].ResourceType != info.Alerts[j].ResourceType {
			return info.Alerts[i].ResourceType < info.Alerts[j].ResourceType
		}
		return info.Alerts[i].Type < info.Alerts[j].Type
	})
	for t, m := range s.metrics {
		info.Metrics[t] = *m
	}
	for t, h := range s.health.ByType {
		info.Health.ByType[t] = h
	}
	return info
}

// Monitor returns the current alerts, metrics and health. It runs a
// monitoring refresh when no tick happened within the monitoring interval,
// so health stays current on a manager whose loop was never started.
func (m *Manager) Monitor(ctx context.Context) models.ResourceMonitoringInfo {
	now := m.clock.Now()
	m.monitoring.mu.Lock()
	last := m.monitoring.lastRefresh
	m.monitoring.mu.Unlock()
	if last.IsZero() || now.Sub(last) >= m.monitoringInterval {
		return m.RefreshMonitoring(ctx)
	}

	m.monitoring.mu.Lock()
	defer m.monitoring.mu.Unlock()
	m.monitoring.expireLocked(now, m.alertTTL)
	return m.monitoring.infoLocked(now)
}

// RefreshMonitoring runs one monitoring tick: it samples usage, updates the
// metrics, raises and expires alerts and recomputes health.
//
// Per type health is Unhealthy when the hard limit is reached or no
// supporting provider is healthy, Degraded above the soft limit, above the
// scale up threshold or when some supporting provider is unhealthy.
func (m *Manager) RefreshMonitoring(ctx context.Context) models.ResourceMonitoringInfo {
	usage, states := m.usageSnapshot(ctx)
	now := m.clock.Now()

	health := models.ResourceHealthStatus{
		Overall: models.HealthHealthy,
		ByType:  make(map[models.ResourceType]models.HealthStatus),
	}
	var alerts []models.ResourceAlert
	alert := func(alertType models.AlertType, t models.ResourceType, severity models.AlertSeverity, format string, args ...any) {
		alerts = append(alerts, models.ResourceAlert{
			Type:         alertType,
			ResourceType: t,
			Severity:     severity,
			Message:      fmt.Sprintf(format, args...),
			FirstSeen:    now,
			LastSeen:     now,
		})
	}

	for _, t := range models.AllResourceTypes() {
		status := models.HealthHealthy
		allocated := usage.Allocated[t]
		limit := m.limits[t]

		switch {
		case limit.HardLimit > 0 && allocated >= limit.HardLimit:
			alert(models.AlertHardLimitReached, t, models.AlertSeverityCritical,
				"%s allocation %d reached the hard limit %d", t, allocated, limit.HardLimit)
			status = models.HealthUnhealthy
		case allocated > limit.SoftLimit:
			alert(models.AlertSoftLimitExceeded, t, models.AlertSeverityWarning,
				"%s allocation %d exceeds the soft limit %d", t, allocated, limit.SoftLimit)
			status = models.HealthDegraded
		}

		utilization := usage.Utilization[t]
		if utilization > m.scaleUpPercent {
			alert(models.AlertHighUtilization, t, models.AlertSeverityWarning,
				"%s utilization is %.1f%%", t, utilization)
			status = status.Worst(models.HealthDegraded)
		}

		supporting, unhealthy := 0, 0
		for _, s := range states {
			if !provider.Supports(s.provider, t) {
				continue
			}
			supporting++
			if !s.healthy {
				unhealthy++
			}
		}
		if unhealthy > 0 {
			severity, providerStatus := models.AlertSeverityWarning, models.HealthDegraded
			if unhealthy == supporting {
				severity, providerStatus = models.AlertSeverityCritical, models.HealthUnhealthy
			}
			alert(models.AlertProviderUnhealthy, t, severity,
				"%d of %d %s providers are unhealthy", unhealthy, supporting, t)
			status = status.Worst(providerStatus)
		}

		health.ByType[t] = status
		health.Overall = health.Overall.Worst(status)
	}

	m.monitoring.mu.Lock()
	defer m.monitoring.mu.Unlock()
	for _, t := range models.AllResourceTypes() {
		m.monitoring.observeLocked(t, usage.Utilization[t], now)
	}
	for _, a := range alerts {
		m.monitoring.raiseLocked(a)
	}
	m.monitoring.expireLocked(now, m.alertTTL)
	m.monitoring.health = health
	m.monitoring.lastRefresh = now

	if health.Overall != models.HealthHealthy {
		log.Ctx(ctx).Warn().
			Str("health", health.Overall.String()).
			Int("alerts", len(m.monitoring.alerts)).
			Msg("resource health degraded")
	}
	return m.monitoring.infoLocked(now)
}
