package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	eventshandler "beacon/internal/events/handler"
	eventsmodels "beacon/internal/events/models"
	"beacon/internal/platform/health"
	ratelimitmodels "beacon/internal/ratelimit/models"
	id "beacon/pkg/domain"
)

type fakeEventsService struct{}

func (f *fakeEventsService) ProcessEvent(_ context.Context, sub *eventsmodels.Submission, _ eventsmodels.RequestContext) (*eventsmodels.AnalyticsEvent, error) {
	return &eventsmodels.AnalyticsEvent{ID: id.NewEventID(), Category: sub.Category, Action: sub.Action}, nil
}

func (f *fakeEventsService) ProcessBatch(_ context.Context, subs []*eventsmodels.Submission, _ eventsmodels.RequestContext) (*eventsmodels.BatchResult, error) {
	return &eventsmodels.BatchResult{Processed: len(subs), Status: eventsmodels.BatchStatusSuccess}, nil
}

// classTagger stamps the rate limit class a route was wired with so tests
// can assert the grouping without a real limiter.
type classTagger struct{}

func (classTagger) Limit(class ratelimitmodels.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test-Class", string(class))
			next.ServeHTTP(w, r)
		})
	}
}

type RouterTestSuite struct {
	suite.Suite
	router http.Handler
}

func (s *RouterTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := eventshandler.New(&fakeEventsService{}, logger)
	s.router = NewRouter(Routes{
		Events:    events,
		Health:    health.New(),
		RateLimit: classTagger{},
	}, logger)
}

func (s *RouterTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) TestHealthEndpoint() {
	rec := s.do(http.MethodGet, "/healthz", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"healthy"`)
}

func (s *RouterTestSuite) TestMetricsEndpoint() {
	rec := s.do(http.MethodGet, "/metrics", "")

	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestUnknownRouteReturnsEnvelope() {
	rec := s.do(http.MethodGet, "/nope", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), `"code":"not_found"`)
	s.Contains(rec.Body.String(), `"success":false`)
}

func (s *RouterTestSuite) TestWrongMethodReturnsEnvelope() {
	rec := s.do(http.MethodDelete, "/events", "")

	s.Equal(http.StatusMethodNotAllowed, rec.Code)
	s.Contains(rec.Body.String(), `"success":false`)
}

func (s *RouterTestSuite) TestEventRoutesUseTelemetryClass() {
	body := `{"category":"interaction","action":"click","consentLevel":"analytics"}`
	rec := s.do(http.MethodPost, "/events", body)

	s.Equal(http.StatusCreated, rec.Code)
	s.Equal("telemetry", rec.Header().Get("X-Test-Class"))
}

func (s *RouterTestSuite) TestNonJSONContentTypeRejected() {
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
