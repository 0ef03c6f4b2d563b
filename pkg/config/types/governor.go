package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
)

// Validatable is implemented by configuration sections that can check themselves.
type Validatable interface {
	Validate() error
}

// Governor is the root configuration of the resource governor.
type Governor struct {
	Logging   Logging   `yaml:"Logging,omitempty" json:"Logging,omitempty"`
	Monitor   Monitor   `yaml:"Monitor,omitempty" json:"Monitor,omitempty"`
	Manager   Manager   `yaml:"Manager,omitempty" json:"Manager,omitempty"`
	Optimizer Optimizer `yaml:"Optimizer,omitempty" json:"Optimizer,omitempty"`
	Providers Providers `yaml:"Providers,omitempty" json:"Providers,omitempty"`
	Metrics   Metrics   `yaml:"Metrics,omitempty" json:"Metrics,omitempty"`
}

func (g Governor) Validate() error {
	return errors.Join(
		g.Logging.Validate(),
		g.Monitor.Validate(),
		g.Manager.Validate(),
		g.Optimizer.Validate(),
		g.Providers.Validate(),
		g.Metrics.Validate(),
	)
}

type Logging struct {
	// Mode is one of default, json, combined or event.
	Mode string `yaml:"Mode,omitempty" json:"Mode,omitempty"`
	// Level is one of trace, debug, info, warn, error or fatal.
	Level string `yaml:"Level,omitempty" json:"Level,omitempty"`
}

func (l Logging) Validate() error {
	switch strings.ToLower(l.Mode) {
	case "", "default", "json", "combined", "event":
	default:
		return fmt.Errorf("logging mode %q is invalid", l.Mode)
	}
	switch strings.ToLower(l.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging level %q is invalid", l.Level)
	}
	return nil
}

type Monitor struct {
	// SampleInterval is how often the background sampler refreshes the host snapshot.
	SampleInterval Duration `yaml:"SampleInterval,omitempty" json:"SampleInterval,omitempty"`
	// CPUSampleWindow is the measurement window of the process CPU fallback.
	CPUSampleWindow Duration `yaml:"CPUSampleWindow,omitempty" json:"CPUSampleWindow,omitempty"`
	// DiskPath is the filesystem sampled for Storage. Empty means the working directory.
	DiskPath string `yaml:"DiskPath,omitempty" json:"DiskPath,omitempty"`
	// HeapMultiplier scales runtime heap usage when no host memory counter is available.
	HeapMultiplier float64 `yaml:"HeapMultiplier,omitempty" json:"HeapMultiplier,omitempty"`
}

func (m Monitor) Validate() error {
	return errors.Join(
		validate.IsGreaterThanZero(m.SampleInterval, "Monitor.SampleInterval must be greater than zero"),
		validate.IsGreaterThanZero(m.CPUSampleWindow, "Monitor.CPUSampleWindow must be greater than zero"),
		validate.IsGreaterThan(m.SampleInterval, m.CPUSampleWindow,
			"Monitor.SampleInterval must be longer than Monitor.CPUSampleWindow"),
		validate.IsGreaterOrEqual(m.HeapMultiplier, 1, "Monitor.HeapMultiplier must be at least 1"),
		optionalDirectory(m.DiskPath, "Monitor.DiskPath"),
	)
}

func optionalDirectory(path, field string) error {
	if path == "" {
		return nil
	}
	return validate.IsDirectory(path, "%s %q is not a directory", field, path)
}

type Manager struct {
	// MonitoringInterval is the period of the alert and health refresh.
	MonitoringInterval Duration `yaml:"MonitoringInterval,omitempty" json:"MonitoringInterval,omitempty"`
	// AlertTTL is how long an alert survives without being raised again.
	AlertTTL Duration `yaml:"AlertTTL,omitempty" json:"AlertTTL,omitempty"`
	// ScaleUpPercent is the utilization above which a scale up is recommended.
	ScaleUpPercent float64 `yaml:"ScaleUpPercent,omitempty" json:"ScaleUpPercent,omitempty"`
	// ScaleDownPercent is the utilization below which a scale down is recommended.
	ScaleDownPercent float64 `yaml:"ScaleDownPercent,omitempty" json:"ScaleDownPercent,omitempty"`
	// Limits overrides the host derived limits per resource type.
	Limits map[string]Limit `yaml:"Limits,omitempty" json:"Limits,omitempty"`
}

func (m Manager) Validate() error {
	errs := []error{
		validate.IsGreaterThanZero(m.MonitoringInterval, "Manager.MonitoringInterval must be greater than zero"),
		validate.IsGreaterThanZero(m.AlertTTL, "Manager.AlertTTL must be greater than zero"),
		validate.IsInRange(m.ScaleUpPercent, 0, 100, "Manager.ScaleUpPercent must be between 0 and 100"),
		validate.IsInRange(m.ScaleDownPercent, 0, 100, "Manager.ScaleDownPercent must be between 0 and 100"),
		validate.IsLessThan(m.ScaleDownPercent, m.ScaleUpPercent,
			"Manager.ScaleDownPercent must be less than Manager.ScaleUpPercent"),
	}
	for name, limit := range m.Limits {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("Manager.Limits: %w", err))
			continue
		}
		if err := limit.validate(rt); err != nil {
			errs = append(errs, fmt.Errorf("Manager.Limits.%s: %w", rt, err))
		}
	}
	return errors.Join(errs...)
}

// Limit configures the limits of one resource type. Amounts are quantity
// strings in the unit of the type. SoftLimit and HardLimit may also be
// percentages of Maximum such as "80%". Unset fields keep their defaults.
type Limit struct {
	Maximum               string   `yaml:"Maximum,omitempty" json:"Maximum,omitempty"`
	SoftLimit             string   `yaml:"SoftLimit,omitempty" json:"SoftLimit,omitempty"`
	HardLimit             string   `yaml:"HardLimit,omitempty" json:"HardLimit,omitempty"`
	MaxPerRequest         string   `yaml:"MaxPerRequest,omitempty" json:"MaxPerRequest,omitempty"`
	MinPerRequest         string   `yaml:"MinPerRequest,omitempty" json:"MinPerRequest,omitempty"`
	Timeout               Duration `yaml:"Timeout,omitempty" json:"Timeout,omitempty"`
	AllowOverAllocation   bool     `yaml:"AllowOverAllocation,omitempty" json:"AllowOverAllocation,omitempty"`
	OverAllocationPercent int      `yaml:"OverAllocationPercent,omitempty" json:"OverAllocationPercent,omitempty"`
}

func (l Limit) validate(rt models.ResourceType) error {
	var errs []error
	maximum, err := ParseQuantity(rt, l.Maximum)
	if err != nil {
		errs = append(errs, err)
	}
	for _, q := range []string{l.SoftLimit, l.HardLimit} {
		if _, err := ParseQuantityOrPercent(rt, q, maximum); err != nil {
			errs = append(errs, err)
		}
	}
	for _, q := range []string{l.MaxPerRequest, l.MinPerRequest} {
		if _, err := ParseQuantity(rt, q); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs,
		validate.IsGreaterOrEqualToZero(l.Timeout, "Timeout must not be negative"),
		validate.IsGreaterOrEqualToZero(l.OverAllocationPercent, "OverAllocationPercent must not be negative"),
	)
	return errors.Join(errs...)
}

type Optimizer struct {
	// Interval is the period of the governor tick that runs the optimizer.
	Interval Duration `yaml:"Interval,omitempty" json:"Interval,omitempty"`
	// HistorySize bounds the number of retained optimization runs.
	HistorySize int `yaml:"HistorySize,omitempty" json:"HistorySize,omitempty"`
	// DisableDefaultRules starts the optimizer with an empty rule set.
	DisableDefaultRules bool       `yaml:"DisableDefaultRules,omitempty" json:"DisableDefaultRules,omitempty"`
	Throttling          Throttling `yaml:"Throttling,omitempty" json:"Throttling,omitempty"`
}

func (o Optimizer) Validate() error {
	return errors.Join(
		validate.IsGreaterThanZero(o.Interval, "Optimizer.Interval must be greater than zero"),
		validate.IsGreaterThanZero(o.HistorySize, "Optimizer.HistorySize must be greater than zero"),
		o.Throttling.Validate(),
	)
}

// Throttling configures the throttling ladder. CPU thresholds are checked
// from high to low; memory above MemoryPercent overrides the CPU result.
type Throttling struct {
	CPUHighPercent   float64  `yaml:"CPUHighPercent,omitempty" json:"CPUHighPercent,omitempty"`
	CPUMediumPercent float64  `yaml:"CPUMediumPercent,omitempty" json:"CPUMediumPercent,omitempty"`
	CPULowPercent    float64  `yaml:"CPULowPercent,omitempty" json:"CPULowPercent,omitempty"`
	MemoryPercent    float64  `yaml:"MemoryPercent,omitempty" json:"MemoryPercent,omitempty"`
	HighDelay        Duration `yaml:"HighDelay,omitempty" json:"HighDelay,omitempty"`
	MediumDelay      Duration `yaml:"MediumDelay,omitempty" json:"MediumDelay,omitempty"`
	LowDelay         Duration `yaml:"LowDelay,omitempty" json:"LowDelay,omitempty"`
	MemoryDelay      Duration `yaml:"MemoryDelay,omitempty" json:"MemoryDelay,omitempty"`
}

func (t Throttling) Validate() error {
	return errors.Join(
		validate.IsInRange(t.CPUHighPercent, 0, 100, "Throttling.CPUHighPercent must be between 0 and 100"),
		validate.IsInRange(t.MemoryPercent, 0, 100, "Throttling.MemoryPercent must be between 0 and 100"),
		validate.IsGreaterOrEqual(t.CPUHighPercent, t.CPUMediumPercent,
			"Throttling.CPUHighPercent must not be below Throttling.CPUMediumPercent"),
		validate.IsGreaterOrEqual(t.CPUMediumPercent, t.CPULowPercent,
			"Throttling.CPUMediumPercent must not be below Throttling.CPULowPercent"),
		validate.IsGreaterOrEqualToZero(t.CPULowPercent, "Throttling.CPULowPercent must not be negative"),
	)
}

// Providers configures the built-in resource providers.
type Providers struct {
	Host  HostProvider   `yaml:"Host,omitempty" json:"Host,omitempty"`
	Pools []PoolProvider `yaml:"Pools,omitempty" json:"Pools,omitempty"`
}

func (p Providers) Validate() error {
	errs := []error{p.Host.Validate()}
	seen := make(map[string]bool)
	if p.Host.Enabled {
		seen[p.Host.ID] = true
	}
	for i, pool := range p.Pools {
		if err := pool.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("Providers.Pools[%d]: %w", i, err))
		}
		if seen[pool.ID] {
			errs = append(errs, fmt.Errorf("Providers.Pools[%d]: duplicate provider id %q", i, pool.ID))
		}
		seen[pool.ID] = true
	}
	return errors.Join(errs...)
}

// HostProvider offers a share of physical CPU, memory and disk.
type HostProvider struct {
	Enabled bool   `yaml:"Enabled,omitempty" json:"Enabled,omitempty"`
	ID      string `yaml:"ID,omitempty" json:"ID,omitempty"`
	// OfferedPercent is the share of physical capacity offered for allocation.
	OfferedPercent int `yaml:"OfferedPercent,omitempty" json:"OfferedPercent,omitempty"`
	// DiskPath is the filesystem whose capacity backs Storage. Empty means the working directory.
	DiskPath string `yaml:"DiskPath,omitempty" json:"DiskPath,omitempty"`
}

func (h HostProvider) Validate() error {
	if !h.Enabled {
		return nil
	}
	return errors.Join(
		validate.NotBlank(h.ID, "Providers.Host.ID must not be empty"),
		validate.IsInRange(h.OfferedPercent, 1, 100, "Providers.Host.OfferedPercent must be between 1 and 100"),
		optionalDirectory(h.DiskPath, "Providers.Host.DiskPath"),
	)
}

// PoolProvider is a fixed capacity pool of one or more resource types.
type PoolProvider struct {
	ID string `yaml:"ID,omitempty" json:"ID,omitempty"`
	// Capacity maps resource type names to quantity strings.
	Capacity map[string]string `yaml:"Capacity,omitempty" json:"Capacity,omitempty"`
	// AllowPartial grants what is left when a request exceeds the remaining capacity.
	AllowPartial bool `yaml:"AllowPartial,omitempty" json:"AllowPartial,omitempty"`
}

func (p PoolProvider) Validate() error {
	errs := []error{
		validate.NotBlank(p.ID, "ID must not be empty"),
		validate.True(len(p.Capacity) > 0, "pool %q has no capacity", p.ID),
	}
	for name, q := range p.Capacity {
		rt, err := models.ParseResourceType(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := ParseQuantity(rt, q); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Metrics struct {
	Enabled bool `yaml:"Enabled,omitempty" json:"Enabled,omitempty"`
	// Address is the listen address of the Prometheus endpoint.
	Address string `yaml:"Address,omitempty" json:"Address,omitempty"`
}

func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	return validate.NotBlank(m.Address, "Metrics.Address must not be empty when metrics are enabled")
}
