package reporting_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ms-reporting/internal/models"
	"ms-reporting/internal/reporting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func trackedOrder(id, ref string, at time.Time) models.Order {
	return models.Order{
		ID:               id,
		EventID:          "ev-1",
		Quantity:         1,
		Total:            45,
		Subtotal:         40,
		DiscountAmount:   5,
		TaxAmount:        3,
		PlatformFee:      2,
		StripeFee:        1,
		PlatformFeePayer: models.FeePayerCustomer,
		StripeFeePayer:   models.FeePayerBusiness,
		Status:           models.OrderStatusCompleted,
		TrackingRef:      ref,
		CreatedAt:        at,
	}
}

func TestTrackingLinksGroupByRef(t *testing.T) {
	// Set up mocks
	mockStore := new(MockStore)
	eventIDs := []string{"ev-1"}
	latest := base.Add(48 * time.Hour)

	booking := scenarioBooking()
	booking.TrackingRef = "ig_story"
	booking.CreatedAt = latest

	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return(eventIDs, nil)
	mockStore.On("TrackedOrders", mock.Anything, eventIDs, mock.Anything).Return([]models.Order{
		trackedOrder("ord-1", "ig_story", base),
		trackedOrder("ord-2", "ig_story", base.Add(time.Hour)),
	}, nil)
	mockStore.On("TrackedBookings", mock.Anything, eventIDs, mock.Anything).Return([]models.TableBooking{booking}, nil)
	mockStore.On("TrackingLinkNames", mock.Anything, "biz-1").Return(map[string]string{
		"ig_story": "Instagram Story",
		"tiktok":   "TikTok Bio",
	}, nil)
	svc, _ := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "ig_story", row.RefCode)
	require.NotNil(t, row.LinkName)
	assert.Equal(t, "Instagram Story", *row.LinkName)
	assert.Equal(t, 2, row.TicketOrders)
	assert.Equal(t, 1, row.TableBookings)
	assert.Equal(t, 3, row.TotalOrders)
	assert.Equal(t, 2, row.TicketsSold)
	require.NotNil(t, row.LastActivity)
	assert.True(t, latest.Equal(*row.LastActivity))

	// 2 x (40 - 5 + 3) tickets, 50 + 4 table
	assert.Equal(t, 76.0, row.TicketRevenue)
	assert.Equal(t, 54.0, row.TableRevenue)
	assert.Equal(t, 130.0, row.TotalRevenue)
	assert.Equal(t, 10.0, row.TotalTax)
	assert.Equal(t, 4.0, row.CustomerPaidFees)
	assert.Equal(t, 5.0, row.BusinessPaidFees)
	assert.Equal(t, 125.0, row.ActualTotal)
	assert.Equal(t, row.ActualTotal, row.Derived.Total)
	assert.Equal(t, 130.0, row.Derived.Gross)

	mockStore.AssertExpectations(t)
}

func TestTrackingLinksUnregisteredRef(t *testing.T) {
	mockStore := new(MockStore)
	eventIDs := []string{"ev-1", "ev-2"}

	small := trackedOrder("ord-2", "newsletter", base)
	small.Subtotal = 0
	small.Total = 12
	small.TaxAmount = 1

	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return(eventIDs, nil)
	mockStore.On("TrackedOrders", mock.Anything, eventIDs, mock.Anything).Return([]models.Order{
		small,
		trackedOrder("ord-1", "flyer", base),
	}, nil)
	mockStore.On("TrackedBookings", mock.Anything, eventIDs, mock.Anything).Return([]models.TableBooking{}, nil)
	mockStore.On("TrackingLinkNames", mock.Anything, "biz-1").Return(map[string]string{"flyer": "Street Flyer"}, nil)
	svc, _ := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "flyer", rows[0].RefCode)
	assert.Equal(t, 38.0, rows[0].TotalRevenue)

	assert.Equal(t, "newsletter", rows[1].RefCode)
	assert.Nil(t, rows[1].LinkName)
	// stored subtotal missing: normalized 12 - 1 - 2 = 9, plus tax
	assert.Equal(t, 10.0, rows[1].TotalRevenue)
}

func TestTrackingLinksNoEvents(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return([]string{}, nil)
	svc, _ := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Len(t, rows, 0)

	mockStore.AssertNotCalled(t, "TrackedOrders", mock.Anything, mock.Anything, mock.Anything)
}

func TestTrackingLinksEventLookupFails(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	svc, _ := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	assert.Error(t, err)
	assert.Nil(t, rows)
}

func TestTrackingLinksDegradeWithoutNamesOrBookings(t *testing.T) {
	mockStore := new(MockStore)
	eventIDs := []string{"ev-1"}
	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return(eventIDs, nil)
	mockStore.On("TrackedOrders", mock.Anything, eventIDs, mock.Anything).Return([]models.Order{trackedOrder("ord-1", "ig_story", base)}, nil)
	mockStore.On("TrackedBookings", mock.Anything, eventIDs, mock.Anything).Return(nil, errors.New("timeout"))
	mockStore.On("TrackingLinkNames", mock.Anything, "biz-1").Return(nil, errors.New("timeout"))
	svc, logs := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].LinkName)
	assert.Equal(t, 1, rows[0].TotalOrders)
	assert.Contains(t, logs.String(), "tracking link names query failed")
}

func TestTrackingLinksOrdersFailure(t *testing.T) {
	mockStore := new(MockStore)
	eventIDs := []string{"ev-1"}
	mockStore.On("EventIDs", mock.Anything, mock.Anything).Return(eventIDs, nil)
	mockStore.On("TrackedOrders", mock.Anything, eventIDs, mock.Anything).Return(nil, errors.New("boom"))
	mockStore.On("TrackedBookings", mock.Anything, eventIDs, mock.Anything).Return([]models.TableBooking{}, nil).Maybe()
	mockStore.On("TrackingLinkNames", mock.Anything, "biz-1").Return(map[string]string{}, nil).Maybe()
	svc, _ := newService(mockStore)

	rows, err := svc.GetTrackingLinkAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	assert.Error(t, err)
	assert.Nil(t, rows)
}

func TestPageViewStats(t *testing.T) {
	mockStore := new(MockStore)
	day1 := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	day3 := day1.AddDate(0, 0, 2)

	mockStore.On("PageViews", mock.Anything, mock.Anything).Return([]models.PageView{
		{ID: "pv-1", BusinessID: "biz-1", PageType: "event", VisitorID: "v1", CreatedAt: day1},
		{ID: "pv-2", BusinessID: "biz-1", PageType: "event", VisitorID: "v1", CreatedAt: day1.Add(time.Hour)},
		{ID: "pv-3", BusinessID: "biz-1", PageType: "storefront", VisitorID: "v2", CreatedAt: day1.Add(2 * time.Hour)},
		{ID: "pv-4", BusinessID: "biz-1", PageType: "event", CreatedAt: day3},
	}, nil)
	svc, _ := newService(mockStore)

	stats, err := svc.GetPageViewStats(context.Background(), reporting.Filter{
		BusinessID: "biz-1",
		Range:      reporting.NewDateRange(day1.Truncate(24*time.Hour), day3.AddDate(0, 0, 1)),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalViews)
	assert.Equal(t, 2, stats.UniqueVisitors)
	assert.Equal(t, map[string]int{"event": 3, "storefront": 1}, stats.ViewsByPageType)

	require.Len(t, stats.Daily, 4)
	assert.Equal(t, reporting.DailyViews{Date: "2024-05-01", Views: 3, UniqueVisitors: 2}, stats.Daily[0])
	assert.Equal(t, reporting.DailyViews{Date: "2024-05-02"}, stats.Daily[1])
	assert.Equal(t, reporting.DailyViews{Date: "2024-05-03", Views: 1}, stats.Daily[2])
	assert.Equal(t, reporting.DailyViews{Date: "2024-05-04"}, stats.Daily[3])
}

func TestPageViewStatsEmpty(t *testing.T) {
	mockStore := new(MockStore)
	mockStore.On("PageViews", mock.Anything, mock.Anything).Return([]models.PageView{}, nil)
	svc, _ := newService(mockStore)

	stats, err := svc.GetPageViewStats(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalViews)
	assert.NotNil(t, stats.ViewsByPageType)
	assert.NotNil(t, stats.Daily)
	assert.Len(t, stats.Daily, 0)
}
