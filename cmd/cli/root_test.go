//go:build unit || !integration

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/governor/cmd/cli/limits"
	"github.com/bacalhau-project/governor/cmd/cli/optimize"
	"github.com/bacalhau-project/governor/cmd/cli/usage"
	"github.com/bacalhau-project/governor/pkg/logger"
	"github.com/bacalhau-project/governor/pkg/models"
)

const poolConfig = `
Providers:
  Host:
    Enabled: false
  Pools:
    - ID: gpus
      Capacity:
        gpu: "4"
Manager:
  Limits:
    gpu:
      Maximum: "4"
`

type RootSuite struct {
	suite.Suite
	configPath string
}

func TestRootSuite(t *testing.T) {
	suite.Run(t, new(RootSuite))
}

func (s *RootSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.configPath = filepath.Join(s.T().TempDir(), "config.yaml")
	s.Require().NoError(os.WriteFile(s.configPath, []byte(poolConfig), 0o600))
}

func (s *RootSuite) execute(args ...string) (string, error) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--config", s.configPath, "--log-mode", "event"))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func (s *RootSuite) TestLimits() {
	out, err := s.execute("limits", "--output", "json")
	s.Require().NoError(err)

	var rows []limits.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	byType := make(map[models.ResourceType]models.ResourceLimit)
	for _, r := range rows {
		byType[r.Type] = r.Limit
	}
	s.Equal(int64(4), byType[models.ResourceTypeGPU].Maximum)
	s.Equal(int64(3), byType[models.ResourceTypeGPU].HardLimit)
	s.Contains(byType, models.ResourceTypeMemory)
}

func (s *RootSuite) TestUsage() {
	out, err := s.execute("usage", "--output", "json")
	s.Require().NoError(err)

	var rows []usage.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	s.Len(rows, len(models.AllResourceTypes()))
	for _, r := range rows {
		if r.Type == models.ResourceTypeGPU {
			s.Equal(int64(4), r.Available)
			s.Equal(int64(0), r.Allocated)
		} else {
			s.Equal(int64(0), r.Available, r.Type)
		}
	}
}

func (s *RootSuite) TestUsageHost() {
	out, err := s.execute("usage", "--host", "--output", "json")
	s.Require().NoError(err)

	var rows []usage.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	s.NotEmpty(rows)
	for _, r := range rows {
		s.Contains([]models.ResourceType{
			models.ResourceTypeCPU, models.ResourceTypeMemory, models.ResourceTypeStorage,
		}, r.Type)
	}
}

func (s *RootSuite) TestThrottle() {
	out, err := s.execute("throttle", "--type", "memory", "--requester", "job-1", "--output", "json")
	s.Require().NoError(err)

	var result map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &result))
	s.Contains([]any{"None", "Low", "Medium", "High"}, result["Level"])
	s.Contains(result, "ShouldThrottle")
}

func (s *RootSuite) TestThrottleRejectsUnknownType() {
	_, err := s.execute("throttle", "--type", "tpu")
	s.Error(err)
}

func (s *RootSuite) TestOptimize() {
	out, err := s.execute("optimize", "--output", "json")
	s.Require().NoError(err)

	var rows []optimize.Row
	s.Require().NoError(json.Unmarshal([]byte(out), &rows))
	for _, r := range rows {
		s.Contains([]string{optimize.SourceRule, optimize.SourceLedger}, r.Source)
	}
}

func (s *RootSuite) TestVersion() {
	out, err := s.execute("version", "--output", "json")
	s.Require().NoError(err)

	var info models.BuildVersionInfo
	s.Require().NoError(json.Unmarshal([]byte(out), &info))
	s.NotEmpty(info.GitVersion)
	s.NotEmpty(info.GOOS)
}

func (s *RootSuite) TestMissingConfigFile() {
	s.configPath = filepath.Join(s.T().TempDir(), "missing.yaml")
	_, err := s.execute("limits")
	s.ErrorContains(err, "doesn't exist")
}

func (s *RootSuite) TestInvalidConfig() {
	s.Require().NoError(os.WriteFile(s.configPath, []byte("Manager:\n  ScaleUpPercent: 150\n"), 0o600))
	_, err := s.execute("limits")
	s.Error(err)
}
