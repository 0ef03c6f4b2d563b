//go:build unit || !integration

package system

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/governor/pkg/logger"
)

type SystemCleanupSuite struct {
	suite.Suite
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestSystemCleanupSuite(t *testing.T) {
	suite.Run(t, new(SystemCleanupSuite))
}

// Before each test
func (suite *SystemCleanupSuite) SetupTest() {
	logger.ConfigureTestLogging(suite.T())
}

func (suite *SystemCleanupSuite) TestCleanupManager() {
	clean := false

	cm := NewCleanupManager()
	cm.RegisterCallback(func() error {
		clean = true
		return nil
	})

	require.NoError(suite.T(), cm.Cleanup(context.Background()))
	require.True(suite.T(), clean, "cleanup handler failed to run registered functions")
}

func (suite *SystemCleanupSuite) TestCleanupManagerCollectsErrors() {
	cm := NewCleanupManager()
	cm.RegisterCallback(func() error { return errors.New("boom") })
	cm.RegisterCallback(func() error { return context.Canceled })
	cm.RegisterCallback(func() error { return nil })

	err := cm.Cleanup(context.Background())
	require.Error(suite.T(), err)
	require.Contains(suite.T(), err.Error(), "boom")
	require.NotContains(suite.T(), err.Error(), "canceled")

	// a second call is a no-op
	require.NoError(suite.T(), cm.Cleanup(context.Background()))
}

func (suite *SystemCleanupSuite) TestRegisterAfterCleanupIgnored() {
	cm := NewCleanupManager()
	require.NoError(suite.T(), cm.Cleanup(context.Background()))

	called := false
	cm.RegisterCallback(func() error {
		called = true
		return nil
	})
	require.False(suite.T(), called)
}

func (suite *SystemCleanupSuite) TestListenAndServeMetrics() {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(suite.T(), err)
	addr := l.Addr().String()
	require.NoError(suite.T(), l.Close())

	cm := NewCleanupManager()
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServeMetrics(context.Background(), cm, addr,
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("governor_up 1\n"))
			}))
	}()

	require.Eventually(suite.T(), func() bool {
		resp, err := http.Get("http://" + addr + "/metrics") //nolint:noctx
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(suite.T(), cm.Cleanup(context.Background()))
	require.NoError(suite.T(), <-done)
}
