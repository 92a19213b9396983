package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"beacon/internal/ratelimit/config"
	"beacon/internal/ratelimit/models"
	"beacon/internal/ratelimit/store/bucket"
	dErrors "beacon/pkg/domain-errors"
	"beacon/pkg/requestcontext"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type failingBucketStore struct{}

func (failingBucketStore) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("store down")
}

func (failingBucketStore) Reset(context.Context, string) error {
	return errors.New("store down")
}

type ServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	service *Service
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = requestcontext.WithNow(context.Background(), testNow)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := New(bucket.NewInMemory(), logger)
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceTestSuite) TestMutationCeilingIsTen() {
	for i := 0; i < 10; i++ {
		result, err := s.service.Check(s.ctx, "client-a", models.ClassMutation)
		s.Require().NoError(err)
		s.True(result.Allowed)
	}

	result, err := s.service.Check(s.ctx, "client-a", models.ClassMutation)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Equal(10, result.Limit)
}

func (s *ServiceTestSuite) TestTelemetryCeilingIsOneHundred() {
	for i := 0; i < 100; i++ {
		result, err := s.service.Check(s.ctx, "client-a", models.ClassTelemetry)
		s.Require().NoError(err)
		s.True(result.Allowed)
	}

	result, err := s.service.Check(s.ctx, "client-a", models.ClassTelemetry)
	s.Require().NoError(err)
	s.False(result.Allowed)
}

func (s *ServiceTestSuite) TestClassesDoNotShareBuckets() {
	for i := 0; i < 10; i++ {
		_, err := s.service.Check(s.ctx, "client-a", models.ClassMutation)
		s.Require().NoError(err)
	}

	result, err := s.service.Check(s.ctx, "client-a", models.ClassTelemetry)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *ServiceTestSuite) TestUnknownClassFallsBackToRead() {
	result, err := s.service.Check(s.ctx, "client-a", models.EndpointClass("mystery"))
	s.Require().NoError(err)
	s.Equal(100, result.Limit)
}

func (s *ServiceTestSuite) TestConfigOverride() {
	cfg := &config.Config{Limits: map[models.EndpointClass]config.Limit{
		models.ClassMutation:  {RequestsPerWindow: 1, Window: time.Minute},
		models.ClassTelemetry: {RequestsPerWindow: 1, Window: time.Minute},
		models.ClassRead:      {RequestsPerWindow: 1, Window: time.Minute},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(bucket.NewInMemory(), logger, WithConfig(cfg))
	s.Require().NoError(err)

	first, err := svc.Check(s.ctx, "client-a", models.ClassMutation)
	s.Require().NoError(err)
	s.True(first.Allowed)

	second, err := svc.Check(s.ctx, "client-a", models.ClassMutation)
	s.Require().NoError(err)
	s.False(second.Allowed)
}

func (s *ServiceTestSuite) TestStoreFailureSurfacesInternalError() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(failingBucketStore{}, logger)
	s.Require().NoError(err)

	_, err = svc.Check(s.ctx, "client-a", models.ClassRead)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceTestSuite) TestResetRestoresCapacity() {
	for i := 0; i < 10; i++ {
		_, err := s.service.Check(s.ctx, "client-a", models.ClassMutation)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.service.Reset(s.ctx, "client-a", models.ClassMutation))

	result, err := s.service.Check(s.ctx, "client-a", models.ClassMutation)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
