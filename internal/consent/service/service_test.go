package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"beacon/internal/consent/models"
	"beacon/internal/storage"
	id "beacon/pkg/domain"
	"beacon/pkg/requestcontext"
)

type ConsentServiceSuite struct {
	suite.Suite
	store   *storage.InMemoryStore
	service *Service
	session id.SessionID
}

func TestConsentServiceSuite(t *testing.T) {
	suite.Run(t, new(ConsentServiceSuite))
}

func (s *ConsentServiceSuite) SetupTest() {
	s.store = storage.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.service, err = New(s.store, logger, WithPolicyVersion("2.1"))
	s.Require().NoError(err)
	s.session = id.NewSessionID()
}

func (s *ConsentServiceSuite) TestCurrent() {
	ctx := context.Background()

	s.Run("first contact creates essential record", func() {
		record, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)
		s.Equal(models.LevelEssential, record.Level)
		s.Equal(models.MethodAutoEssential, record.Method)
		s.Equal("2.1", record.Version)
		s.True(record.Granular[models.FlagEssential])
		s.False(record.ConsentID.IsNil())
	})

	s.Run("second call returns the same record", func() {
		first, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)
		second, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)
		s.Equal(first.ConsentID, second.ConsentID)
	})

	s.Run("expired record is regenerated", func() {
		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		ctxThen := requestcontext.WithNow(ctx, created)
		session := id.NewSessionID()

		first, err := s.service.Current(ctxThen, session)
		s.Require().NoError(err)

		ctxLater := requestcontext.WithNow(ctx, created.Add(366*24*time.Hour))
		second, err := s.service.Current(ctxLater, session)
		s.Require().NoError(err)
		s.NotEqual(first.ConsentID, second.ConsentID)
		s.Equal(models.LevelEssential, second.Level)
	})

	s.Run("nil session rejected", func() {
		_, err := s.service.Current(ctx, id.SessionID{})
		s.Error(err)
	})
}

func (s *ConsentServiceSuite) TestUpdate() {
	ctx := context.Background()

	s.Run("update persists and survives reload", func() {
		_, err := s.service.Update(ctx, s.session, models.LevelAnalytics, nil, models.MethodBannerAccept)
		s.Require().NoError(err)

		record, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)
		s.Equal(models.LevelAnalytics, record.Level)
		s.True(record.Granular[models.FlagPerformance])
	})

	s.Run("essential stays true for every level", func() {
		for _, level := range []models.Level{models.LevelNone, models.LevelEssential, models.LevelFunctional, models.LevelAnalytics, models.LevelMarketing, models.LevelFull} {
			record, err := s.service.Update(ctx, s.session, level, map[models.Flag]bool{models.FlagEssential: false}, models.MethodSettingsUpdate)
			s.Require().NoError(err)
			s.True(record.Granular[models.FlagEssential], "level %s", level)
		}
	})

	s.Run("unknown level is rejected without persisting", func() {
		before, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)

		_, err = s.service.Update(ctx, s.session, "platinum", nil, models.MethodBannerAccept)
		s.Error(err)

		after, err := s.service.Current(ctx, s.session)
		s.Require().NoError(err)
		s.Equal(before.Level, after.Level)
	})

	s.Run("listeners run in registration order", func() {
		var order []string
		s.service.Subscribe(func(_ id.SessionID, _ models.Record) {
			order = append(order, "first")
		})
		s.service.Subscribe(func(_ id.SessionID, _ models.Record) {
			order = append(order, "second")
		})

		_, err := s.service.Update(ctx, s.session, models.LevelFunctional, nil, models.MethodSettingsUpdate)
		s.Require().NoError(err)
		s.Equal([]string{"first", "second"}, order)
	})

	s.Run("panicking listener does not block later listeners", func() {
		service, err := New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
		s.Require().NoError(err)

		var reached bool
		service.Subscribe(func(_ id.SessionID, _ models.Record) {
			panic("listener exploded")
		})
		service.Subscribe(func(_ id.SessionID, record models.Record) {
			reached = true
			s.Equal(models.LevelMarketing, record.Level)
		})

		_, err = service.Update(ctx, s.session, models.LevelMarketing, nil, models.MethodBannerAccept)
		s.Require().NoError(err)
		s.True(reached)
	})
}

func (s *ConsentServiceSuite) TestWithdraw() {
	ctx := requestcontext.WithNow(context.Background(), time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))

	_, err := s.service.Update(ctx, s.session, models.LevelFull, nil, models.MethodBannerAccept)
	s.Require().NoError(err)

	record, err := s.service.Withdraw(ctx, s.session)
	s.Require().NoError(err)

	s.Equal(models.LevelNone, record.Level)
	s.Equal(models.MethodGDPRRequest, record.Method)
	s.Require().NotNil(record.WithdrawnAt)
	s.True(record.Granular[models.FlagEssential])
	s.False(record.Granular[models.FlagThirdParty])

	s.Run("record stays updatable after withdrawal", func() {
		record, err := s.service.Update(ctx, s.session, models.LevelAnalytics, nil, models.MethodBannerAccept)
		s.Require().NoError(err)
		s.Equal(models.LevelAnalytics, record.Level)
		s.Nil(record.WithdrawnAt)
	})
}

func (s *ConsentServiceSuite) TestIsTrackingAllowed() {
	ctx := context.Background()

	allowed, err := s.service.IsTrackingAllowed(ctx, s.session, models.FlagAnalytics)
	s.Require().NoError(err)
	s.False(allowed, "essential level does not permit analytics")

	_, err = s.service.Update(ctx, s.session, models.LevelAnalytics, nil, models.MethodBannerAccept)
	s.Require().NoError(err)

	allowed, err = s.service.IsTrackingAllowed(ctx, s.session, models.FlagAnalytics)
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *ConsentServiceSuite) TestBannerMarker() {
	ctx := context.Background()

	s.False(s.service.BannerShown(ctx, s.session))
	s.Require().NoError(s.service.MarkBannerShown(ctx, s.session))
	s.True(s.service.BannerShown(ctx, s.session))
}
