package reporting_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ms-reporting/internal/models"
	"ms-reporting/internal/reporting"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*reporting.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// every pooled connection would get its own empty database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	tables := []interface{}{
		(*models.Business)(nil),
		(*models.Event)(nil),
		(*models.Order)(nil),
		(*models.TableBooking)(nil),
		(*models.Refund)(nil),
		(*models.TableBookingRefund)(nil),
		(*models.TrackingLink)(nil),
		(*models.PageView)(nil),
	}
	for _, model := range tables {
		_, err = bunDB.NewCreateTable().Model(model).Exec(context.Background())
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	t.Cleanup(func() { bunDB.Close() })
	return reporting.NewDB(bunDB), bunDB
}

func insert(t *testing.T, db *bun.DB, model interface{}) {
	_, err := db.NewInsert().Model(model).Exec(context.Background())
	require.NoError(t, err)
}

var (
	march1  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	march15 = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
)

func seedBusiness(t *testing.T, db *bun.DB) {
	rate := 8.0
	insert(t, db, &models.Business{ID: "biz-1", Name: "Club One", TaxPercentage: &rate})
	insert(t, db, &models.Business{ID: "biz-2", Name: "Club Two"})
	insert(t, db, &models.Event{ID: "ev-1", BusinessID: "biz-1", Title: "Opening", EventDate: march15, Status: "published"})
	insert(t, db, &models.Event{ID: "ev-2", BusinessID: "biz-1", Title: "Closing", Status: "published"})
	insert(t, db, &models.Event{ID: "ev-9", BusinessID: "biz-2", Title: "Elsewhere", Status: "published"})
}

func order(id, eventID, status string, at time.Time) *models.Order {
	return &models.Order{
		ID:               id,
		EventID:          eventID,
		Quantity:         2,
		Total:            100,
		TaxAmount:        8,
		PlatformFee:      5,
		StripeFee:        3,
		PlatformFeePayer: models.FeePayerCustomer,
		StripeFeePayer:   models.FeePayerBusiness,
		Status:           status,
		CreatedAt:        at,
	}
}

func TestCompletedOrdersFiltersBusinessStatusAndRange(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	insert(t, bunDB, order("ord-1", "ev-1", models.OrderStatusCompleted, march1))
	insert(t, bunDB, order("ord-2", "ev-2", models.OrderStatusCompleted, march15))
	insert(t, bunDB, order("ord-3", "ev-1", "pending", march1))
	insert(t, bunDB, order("ord-4", "ev-9", models.OrderStatusCompleted, march1))

	orders, err := store.CompletedOrders(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "ord-1", orders[0].ID)
	require.NotNil(t, orders[0].Event)
	assert.Equal(t, "Opening", orders[0].Event.Title)
	assert.Equal(t, 100.0, orders[0].Total.Float64())

	// Test case: bounds are inclusive
	orders, err = store.CompletedOrders(context.Background(), reporting.Filter{
		BusinessID: "biz-1",
		Range:      reporting.NewDateRange(march15, march15),
	})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-2", orders[0].ID)

	// Test case: single event
	orders, err = store.CompletedOrders(context.Background(), reporting.Filter{BusinessID: "biz-1", EventID: "ev-1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ord-1", orders[0].ID)
}

func TestNullMoneyAndPayerColumns(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	insert(t, bunDB, order("ord-1", "ev-1", models.OrderStatusCompleted, march1))
	_, err := bunDB.ExecContext(context.Background(),
		"UPDATE orders SET tax_amount = NULL, stripe_fee = 'n/a', platform_fee_payer = NULL, stripe_fee_payer = NULL WHERE id = ?", "ord-1")
	require.NoError(t, err)

	orders, err := store.CompletedOrders(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	assert.Equal(t, 0.0, o.TaxAmount.Float64())
	assert.Equal(t, 0.0, o.StripeFee.Float64())
	assert.Empty(t, o.PlatformFeePayer)

	b := reporting.NormalizeOrder(o)
	assert.Equal(t, "5", b.CustomerPaidFees.String())
	assert.True(t, b.BusinessPaidFees.IsZero())
}

func TestActiveBookingsStatuses(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	for i, status := range []string{
		models.BookingStatusRequested,
		models.BookingStatusConfirmed,
		models.BookingStatusArrived,
		models.BookingStatusSeated,
		models.BookingStatusCompleted,
		models.BookingStatusCancelled,
	} {
		insert(t, bunDB, &models.TableBooking{
			ID:        uuid.New().String(),
			EventID:   "ev-1",
			Amount:    models.Amount(10 * (i + 1)),
			Status:    status,
			CreatedAt: march1.Add(time.Duration(i) * time.Minute),
		})
	}

	bookings, err := store.ActiveBookings(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, bookings, 4)
	for _, b := range bookings {
		assert.Contains(t, models.BookingSuccessStatuses, b.Status)
	}
}

func TestRefundsUseTheirOwnDate(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	insert(t, bunDB, order("ord-1", "ev-1", models.OrderStatusCompleted, march1))
	insert(t, bunDB, order("ord-9", "ev-9", models.OrderStatusCompleted, march1))
	insert(t, bunDB, &models.Refund{ID: "rf-1", OrderID: "ord-1", Amount: 20, Status: models.RefundStatusSucceeded, CreatedAt: march15})
	insert(t, bunDB, &models.Refund{ID: "rf-2", OrderID: "ord-1", Amount: 7, Status: "failed", CreatedAt: march15})
	insert(t, bunDB, &models.Refund{ID: "rf-9", OrderID: "ord-9", Amount: 50, Status: models.RefundStatusSucceeded, CreatedAt: march15})

	f := reporting.Filter{
		BusinessID: "biz-1",
		Range:      reporting.NewDateRange(march15.Add(-time.Hour), march15.Add(time.Hour)),
	}
	ctx := context.Background()

	orders, err := store.CompletedOrders(ctx, f)
	require.NoError(t, err)
	assert.Len(t, orders, 0)

	refunds, err := store.SucceededRefunds(ctx, f)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, "rf-1", refunds[0].ID)

	parents, err := store.ParentEvents(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", parents.Orders["ord-1"])
	assert.NotContains(t, parents.Orders, "ord-9")

	// Refund counts toward the business but no event bucket exists for it
	svc, _ := newService(store)
	out, err := svc.GetBusinessAnalytics(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 20.0, out.TotalTicketRefunds)
	assert.Equal(t, 1, out.RefundCount)
	assert.Empty(t, out.Events)
	require.NotNil(t, out.TaxPercentage)
	assert.Equal(t, 8.0, *out.TaxPercentage)
}

func TestTableRefundsAttachToBookingEvent(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	insert(t, bunDB, &models.TableBooking{
		ID: "tb-1", EventID: "ev-2", Amount: 50, TaxAmount: 4, PlatformFee: 2, StripeFee: 1,
		PlatformFeePayer: models.FeePayerBusiness, StripeFeePayer: models.FeePayerBusiness,
		Status: models.BookingStatusSeated, CreatedAt: march1,
	})
	insert(t, bunDB, &models.TableBookingRefund{ID: "tbr-1", TableBookingID: "tb-1", Amount: 15, Status: models.RefundStatusSucceeded, CreatedAt: march1})

	svc, _ := newService(store)
	out, err := svc.GetBusinessAnalytics(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)

	require.Len(t, out.Events, 1)
	assert.Equal(t, "ev-2", out.Events[0].EventID)
	assert.Equal(t, 15.0, out.Events[0].Table.Refunds)
	assert.Equal(t, 50.0, out.Events[0].TotalRevenue)
	assert.Equal(t, 1, out.RefundCount)
	assert.Nil(t, out.Events[0].EventDate)
}

func TestTrackingQueries(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)
	ctx := context.Background()

	tracked := order("ord-1", "ev-1", models.OrderStatusCompleted, march1)
	tracked.TrackingRef = "ig_story"
	insert(t, bunDB, tracked)
	insert(t, bunDB, order("ord-2", "ev-1", models.OrderStatusCompleted, march1))
	insert(t, bunDB, &models.TableBooking{ID: "tb-1", EventID: "ev-2", Amount: 30, Status: models.BookingStatusConfirmed, TrackingRef: "ig_story", CreatedAt: march15})
	insert(t, bunDB, &models.TrackingLink{ID: "tl-1", BusinessID: "biz-1", RefCode: "ig_story", Name: "Instagram Story", CreatedAt: march1})
	insert(t, bunDB, &models.TrackingLink{ID: "tl-9", BusinessID: "biz-2", RefCode: "ig_story", Name: "Other Club", CreatedAt: march1})

	ids, err := store.EventIDs(ctx, reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev-1", "ev-2"}, ids)

	orders, err := store.TrackedOrders(ctx, ids, reporting.DateRange{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ig_story", orders[0].TrackingRef)

	bookings, err := store.TrackedBookings(ctx, ids, reporting.DateRange{})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	names, err := store.TrackingLinkNames(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ig_story": "Instagram Story"}, names)

	svc, _ := newService(store)
	rows, err := svc.GetTrackingLinkAnalytics(ctx, reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TotalOrders)
	require.NotNil(t, rows[0].LastActivity)
	assert.True(t, march15.Equal(*rows[0].LastActivity))
}

func TestBusinessNotFound(t *testing.T) {
	store, _ := setupTestDB(t)

	business, err := store.Business(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, business)
}

func TestPageViewsQuery(t *testing.T) {
	store, bunDB := setupTestDB(t)
	seedBusiness(t, bunDB)

	insert(t, bunDB, &models.PageView{ID: "pv-1", BusinessID: "biz-1", EventID: "ev-1", PageType: "event", VisitorID: "v1", CreatedAt: march1})
	insert(t, bunDB, &models.PageView{ID: "pv-2", BusinessID: "biz-1", PageType: "storefront", CreatedAt: march15})
	insert(t, bunDB, &models.PageView{ID: "pv-3", BusinessID: "biz-2", PageType: "storefront", CreatedAt: march15})

	views, err := store.PageViews(context.Background(), reporting.Filter{BusinessID: "biz-1"})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "pv-1", views[0].ID)
	assert.Empty(t, views[1].VisitorID)

	views, err = store.PageViews(context.Background(), reporting.Filter{BusinessID: "biz-1", EventID: "ev-1"})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}
