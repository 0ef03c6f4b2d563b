//go:build unit || !integration

package provider

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/models"
)

type PoolProviderSuite struct {
	suite.Suite
	ctx   context.Context
	clock *clock.Mock
	pool  *PoolProvider
}

func TestPoolProviderSuite(t *testing.T) {
	suite.Run(t, new(PoolProviderSuite))
}

func (s *PoolProviderSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = clock.NewMock()
	var err error
	s.pool, err = NewPoolProvider(PoolParams{
		ID: "gpu-pool",
		Capacity: map[models.ResourceType]int64{
			models.ResourceTypeGPU:     4,
			models.ResourceTypeAIModel: 2,
		},
		Clock: s.clock,
	})
	s.Require().NoError(err)
}

func (s *PoolProviderSuite) TestInvalidParams() {
	_, err := NewPoolProvider(PoolParams{ID: " "})
	s.Error(err)

	_, err = NewPoolProvider(PoolParams{ID: "p", Capacity: map[models.ResourceType]int64{"TPU": 1}})
	s.Error(err)

	_, err = NewPoolProvider(PoolParams{ID: "p", Capacity: map[models.ResourceType]int64{models.ResourceTypeGPU: -1}})
	s.Error(err)
}

func (s *PoolProviderSuite) TestSupportedResourceTypes() {
	s.Equal([]models.ResourceType{models.ResourceTypeGPU, models.ResourceTypeAIModel}, s.pool.SupportedResourceTypes())
	s.True(Supports(s.pool, models.ResourceTypeGPU))
	s.False(Supports(s.pool, models.ResourceTypeCPU))
}

func (s *PoolProviderSuite) TestAllocateAndRelease() {
	resp, err := s.pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeGPU, Amount: 3})
	s.Require().NoError(err)
	s.True(resp.Successful)
	s.NotEmpty(resp.AllocationID)
	s.Equal(int64(3), resp.Amount)
	s.Nil(resp.ExpiresAt)

	avail, err := s.pool.GetAvailability(s.ctx)
	s.Require().NoError(err)
	s.True(avail.Healthy)
	s.Equal(int64(1), avail.AvailableFor(models.ResourceTypeGPU))
	s.Equal(int64(2), avail.AvailableFor(models.ResourceTypeAIModel))

	s.Require().NoError(s.pool.Release(s.ctx, resp.AllocationID))
	s.Equal(int64(0), s.pool.Used()[models.ResourceTypeGPU])
	s.Equal(0, s.pool.GrantCount())

	err = s.pool.Release(s.ctx, resp.AllocationID)
	s.True(goverrors.IsErrorWithCode(err, goverrors.NotFound))
}

func (s *PoolProviderSuite) TestInsufficientCapacity() {
	resp, err := s.pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeGPU, Amount: 5})
	s.Require().NoError(err)
	s.False(resp.Successful)
	s.Contains(resp.ErrorMessage, "insufficient")
}

func (s *PoolProviderSuite) TestUnsupportedType() {
	resp, err := s.pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeCPU, Amount: 1})
	s.Require().NoError(err)
	s.False(resp.Successful)
	s.Contains(resp.ErrorMessage, "does not offer")
}

func (s *PoolProviderSuite) TestPartialGrant() {
	pool, err := NewPoolProvider(PoolParams{
		ID:           "net",
		Capacity:     map[models.ResourceType]int64{models.ResourceTypeNetwork: 100},
		AllowPartial: true,
	})
	s.Require().NoError(err)

	resp, err := pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeNetwork, Amount: 150})
	s.Require().NoError(err)
	s.True(resp.Successful)
	s.Equal(int64(100), resp.Amount)

	resp, err = pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeNetwork, Amount: 1})
	s.Require().NoError(err)
	s.False(resp.Successful)
}

func (s *PoolProviderSuite) TestLeaseDuration() {
	resp, err := s.pool.Allocate(s.ctx, models.AllocationRequest{
		Type:     models.ResourceTypeAIModel,
		Amount:   1,
		Duration: time.Minute,
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp.ExpiresAt)
	s.Equal(s.clock.Now().Add(time.Minute), *resp.ExpiresAt)
}

func (s *PoolProviderSuite) TestUnhealthy() {
	held, err := s.pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeGPU, Amount: 1})
	s.Require().NoError(err)

	s.pool.SetHealthy(false)
	avail, err := s.pool.GetAvailability(s.ctx)
	s.Require().NoError(err)
	s.False(avail.Healthy)

	resp, err := s.pool.Allocate(s.ctx, models.AllocationRequest{Type: models.ResourceTypeGPU, Amount: 1})
	s.Require().NoError(err)
	s.False(resp.Successful)

	// releases are still accepted
	s.NoError(s.pool.Release(s.ctx, held.AllocationID))
}

func (s *PoolProviderSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.pool.Allocate(ctx, models.AllocationRequest{Type: models.ResourceTypeGPU, Amount: 1})
	s.ErrorIs(err, context.Canceled)
	_, err = s.pool.GetAvailability(ctx)
	s.ErrorIs(err, context.Canceled)
}
