package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	consent "beacon/internal/consent/models"
	"beacon/internal/performance/models"
	id "beacon/pkg/domain"
	dErrors "beacon/pkg/domain-errors"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

const analyticsSession = "7f6c0c1e-9a3b-4bb5-8a3e-2f4a5d6e7f80"

type fakePerfService struct {
	samples []models.Sample
	report  *models.Report
	err     error
}

func (f *fakePerfService) RecordSample(_ context.Context, sample models.Sample) error {
	if f.err != nil {
		return f.err
	}
	f.samples = append(f.samples, sample)
	return nil
}

func (f *fakePerfService) Report(_ context.Context, _ time.Duration) (*models.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeConsents struct {
	level consent.Level
}

func (f *fakeConsents) Current(context.Context, id.SessionID) (*consent.Record, error) {
	record := consent.NewRecord(testNow, "1.0", 365*24*time.Hour)
	record.Level = f.level
	return record, nil
}

type HandlerTestSuite struct {
	suite.Suite
	service  *fakePerfService
	consents *fakeConsents
	router   chi.Router
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.service = &fakePerfService{report: &models.Report{GeneratedAt: testNow}}
	s.consents = &fakeConsents{level: consent.LevelAnalytics}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.router = chi.NewRouter()
	New(s.service, s.consents, logger).Register(s.router)
}

func (s *HandlerTestSuite) do(method, target, session, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerTestSuite) envelope(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *HandlerTestSuite) TestRecordSample() {
	rec := s.do(http.MethodPost, "/performance", analyticsSession,
		`{"metric":"LCP","value":2100,"path":"/blog"}`)

	s.Equal(http.StatusCreated, rec.Code)
	s.Require().Len(s.service.samples, 1)
	s.Equal(models.MetricLCP, s.service.samples[0].Metric)
	s.Equal(2100.0, s.service.samples[0].Value)
	s.Equal("/blog", s.service.samples[0].Path)
	s.Equal(string(consent.LevelAnalytics), s.service.samples[0].ConsentLevel)
}

func (s *HandlerTestSuite) TestRecordRequiresAnalyticsConsent() {
	s.consents.level = consent.LevelEssential

	rec := s.do(http.MethodPost, "/performance", analyticsSession,
		`{"metric":"LCP","value":2100}`)

	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(string(dErrors.CodeMissingConsent), s.envelope(rec)["code"])
	s.Empty(s.service.samples)
}

func (s *HandlerTestSuite) TestRecordWithoutSessionIsDenied() {
	rec := s.do(http.MethodPost, "/performance", "", `{"metric":"LCP","value":2100}`)

	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerTestSuite) TestRecordRejectsMissingMetric() {
	rec := s.do(http.MethodPost, "/performance", analyticsSession, `{"value":2100}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(string(dErrors.CodeValidation), s.envelope(rec)["code"])
}

func (s *HandlerTestSuite) TestRecordRejectsNegativeValue() {
	rec := s.do(http.MethodPost, "/performance", analyticsSession,
		`{"metric":"LCP","value":-5}`)

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestReport() {
	s.service.report = &models.Report{
		GeneratedAt:  testNow,
		TotalSamples: 3,
		Insights: []models.Insight{
			{Severity: models.SeverityHigh, Metric: models.MetricLCP, Message: "x"},
		},
	}

	rec := s.do(http.MethodGet, "/performance/report", "", "")

	s.Equal(http.StatusOK, rec.Code)
	data := s.envelope(rec)["data"].(map[string]any)
	s.Equal(3.0, data["totalSamples"])
}

func (s *HandlerTestSuite) TestReportRejectsBadWindow() {
	rec := s.do(http.MethodGet, "/performance/report?window=yesterday", "", "")

	s.Equal(http.StatusBadRequest, rec.Code)
}
