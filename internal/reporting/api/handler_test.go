package reporting_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-reporting/internal/logger"
	"ms-reporting/internal/reporting"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) GetBusinessAnalytics(ctx context.Context, f reporting.Filter) (*reporting.BusinessAnalytics, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.BusinessAnalytics), args.Error(1)
}

func (m *MockReporter) GetTrackingLinkAnalytics(ctx context.Context, f reporting.Filter) ([]reporting.TrackingLinkAnalytics, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reporting.TrackingLinkAnalytics), args.Error(1)
}

func (m *MockReporter) GetPageViewStats(ctx context.Context, f reporting.Filter) (*reporting.PageViewStats, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.PageViewStats), args.Error(1)
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func newRouter(svc reporting.Reporter, limiter Limiter) http.Handler {
	h := NewHandler(svc, logger.NewWithWriters(nil, nil), limiter, time.Second)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetBusinessAnalytics(t *testing.T) {
	svc := new(MockReporter)
	svc.On("GetBusinessAnalytics", mock.Anything, mock.MatchedBy(func(f reporting.Filter) bool {
		return f.BusinessID == "biz-1" && f.EventID == "ev-1" &&
			f.Range.From != nil && f.Range.To != nil &&
			f.Range.To.Equal(time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC))
	})).Return(&reporting.BusinessAnalytics{BusinessID: "biz-1", TotalRevenue: 92, Events: []reporting.EventSummary{}}, nil)

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/analytics?from=2024-03-01&to=2024-03-31&event_id=ev-1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "biz-1", body["business_id"])
	assert.Equal(t, 92.0, body["total_revenue"])
	assert.Equal(t, []interface{}{}, body["events"])

	svc.AssertExpectations(t)
}

func TestInvalidRangeIsBadRequest(t *testing.T) {
	svc := new(MockReporter)

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/analytics?from=2024-04-01&to=2024-03-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/page-views?from=last-week")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "GetBusinessAnalytics", mock.Anything, mock.Anything)
}

func TestServiceErrorIsInternal(t *testing.T) {
	svc := new(MockReporter)
	svc.On("GetTrackingLinkAnalytics", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/tracking-links")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to get tracking link analytics"}`, rec.Body.String())
}

func TestGetTrackingLinks(t *testing.T) {
	name := "Instagram Story"
	svc := new(MockReporter)
	svc.On("GetTrackingLinkAnalytics", mock.Anything, mock.Anything).Return([]reporting.TrackingLinkAnalytics{
		{RefCode: "ig_story", LinkName: &name, TotalOrders: 3},
	}, nil)

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/tracking-links")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		BusinessID    string                            `json:"business_id"`
		TrackingLinks []reporting.TrackingLinkAnalytics `json:"tracking_links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "biz-1", body.BusinessID)
	require.Len(t, body.TrackingLinks, 1)
	assert.Equal(t, "Instagram Story", *body.TrackingLinks[0].LinkName)
}

func TestGetPageViews(t *testing.T) {
	svc := new(MockReporter)
	svc.On("GetPageViewStats", mock.Anything, mock.Anything).Return(&reporting.PageViewStats{BusinessID: "biz-1", TotalViews: 4}, nil)

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/page-views")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_views":4`)
}

func TestRateLimit(t *testing.T) {
	svc := new(MockReporter)
	limiter := &fakeLimiter{allowed: false}

	rec := do(t, newRouter(svc, limiter), "/api/reporting/businesses/biz-1/analytics")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, []string{"biz-1"}, limiter.keys)
	svc.AssertNotCalled(t, "GetBusinessAnalytics", mock.Anything, mock.Anything)
}

func TestRateLimiterFailureAllowsRequest(t *testing.T) {
	svc := new(MockReporter)
	svc.On("GetPageViewStats", mock.Anything, mock.Anything).Return(&reporting.PageViewStats{BusinessID: "biz-1"}, nil)
	limiter := &fakeLimiter{err: errors.New("redis: connection refused")}

	rec := do(t, newRouter(svc, limiter), "/api/reporting/businesses/biz-1/page-views")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestTimeoutIsGatewayTimeout(t *testing.T) {
	svc := new(MockReporter)
	svc.On("GetBusinessAnalytics", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)

	rec := do(t, newRouter(svc, nil), "/api/reporting/businesses/biz-1/analytics")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
