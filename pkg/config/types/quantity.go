package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTBurke/k8sresource"
	"github.com/c2h5oh/datasize"

	"github.com/bacalhau-project/governor/pkg/models"
)

// allow Mi, Gi to mean Mb, Gb
// remove spaces
// lowercase
func convertBytesString(st string) string {
	st = strings.ToLower(st)
	st = strings.ReplaceAll(st, "i", "b")
	st = strings.ReplaceAll(st, " ", "")
	return st
}

// ParseQuantity converts a human readable amount into the integer unit used
// for the resource type. CPU accepts core counts and millicores ("2", "500m")
// and returns percentage points, byte denominated types accept sizes ("8Gb",
// "512Mi") and slot types accept plain integers.
func ParseQuantity(t models.ResourceType, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	switch t {
	case models.ResourceTypeCPU:
		cpu, err := k8sresource.NewCPUFromString(convertBytesString(s))
		if err != nil {
			return 0, fmt.Errorf("invalid CPU quantity %q: %w", s, err)
		}
		// 1000 millicores is one core, which is 100 percentage points
		return int64(cpu.ToMillicores() / 10), nil //nolint:gomnd
	case models.ResourceTypeMemory, models.ResourceTypeStorage, models.ResourceTypeNetwork:
		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(convertBytesString(strings.TrimSuffix(s, "/s")))); err != nil {
			return 0, fmt.Errorf("invalid %s quantity %q: %w", t, s, err)
		}
		return int64(size.Bytes()), nil
	case models.ResourceTypeGPU, models.ResourceTypeAIModel:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s quantity %q: %w", t, s, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unknown resource type %q", t)
	}
}

// ParseQuantityOrPercent parses s as a percentage of maximum when it ends
// with "%", and as a quantity otherwise.
func ParseQuantityOrPercent(t models.ResourceType, s string, maximum int64) (int64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return ParseQuantity(t, s)
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("percentage %q must be between 0%% and 100%%", s)
	}
	return int64(float64(maximum) * pct / 100), nil //nolint:gomnd
}

// FormatQuantity renders an amount of the resource type in a human readable form.
func FormatQuantity(t models.ResourceType, amount int64) string {
	switch t {
	case models.ResourceTypeCPU:
		return k8sresource.NewCPUFromFloat(float64(amount) / 100).ToString() //nolint:gomnd
	case models.ResourceTypeMemory, models.ResourceTypeStorage:
		if amount < 0 {
			return strconv.FormatInt(amount, 10)
		}
		return datasize.ByteSize(amount).HumanReadable()
	case models.ResourceTypeNetwork:
		if amount < 0 {
			return strconv.FormatInt(amount, 10)
		}
		return datasize.ByteSize(amount).HumanReadable() + "/s"
	default:
		return strconv.FormatInt(amount, 10)
	}
}
