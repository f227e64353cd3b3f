package reporting

import (
	"context"
	"database/sql"
	"errors"

	"ms-reporting/internal/models"

	"github.com/uptrace/bun"
)

// Filter scopes one aggregation call. EventID is optional.
type Filter struct {
	BusinessID string
	EventID    string
	Range      DateRange
}

// ParentIndex maps transaction ids to their event. It is built from an
// unfiltered fetch so refunds inside the range still find a parent whose
// own created_at is outside it.
type ParentIndex struct {
	Orders   map[string]string
	Bookings map[string]string
}

// Store is the read-only query surface the aggregators need
type Store interface {
	CompletedOrders(ctx context.Context, f Filter) ([]models.Order, error)
	ActiveBookings(ctx context.Context, f Filter) ([]models.TableBooking, error)
	SucceededRefunds(ctx context.Context, f Filter) ([]models.Refund, error)
	SucceededTableRefunds(ctx context.Context, f Filter) ([]models.TableBookingRefund, error)
	ParentEvents(ctx context.Context, f Filter) (ParentIndex, error)
	Business(ctx context.Context, businessID string) (*models.Business, error)
	EventIDs(ctx context.Context, f Filter) ([]string, error)
	TrackedOrders(ctx context.Context, eventIDs []string, r DateRange) ([]models.Order, error)
	TrackedBookings(ctx context.Context, eventIDs []string, r DateRange) ([]models.TableBooking, error)
	TrackingLinkNames(ctx context.Context, businessID string) (map[string]string, error)
	PageViews(ctx context.Context, f Filter) ([]models.PageView, error)
}

// DB handles reporting database reads
type DB struct {
	bun *bun.DB
}

// NewDB creates a new reporting DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// CompletedOrders retrieves completed ticket orders on the business's events
func (db *DB) CompletedOrders(ctx context.Context, f Filter) ([]models.Order, error) {
	var orders []models.Order
	q := db.bun.NewSelect().
		Model(&orders).
		Relation("Event").
		Where("event.business_id = ?", f.BusinessID).
		Where("o.status = ?", models.OrderStatusCompleted)
	if f.EventID != "" {
		q = q.Where("o.event_id = ?", f.EventID)
	}
	err := f.Range.Apply(q, "o.created_at").
		Order("o.created_at ASC", "o.id ASC").
		Scan(ctx)

	return orders, err
}

// ActiveBookings retrieves table bookings in a revenue-bearing state
func (db *DB) ActiveBookings(ctx context.Context, f Filter) ([]models.TableBooking, error) {
	var bookings []models.TableBooking
	q := db.bun.NewSelect().
		Model(&bookings).
		Relation("Event").
		Where("event.business_id = ?", f.BusinessID).
		Where("tb.status IN (?)", bun.In(models.BookingSuccessStatuses))
	if f.EventID != "" {
		q = q.Where("tb.event_id = ?", f.EventID)
	}
	err := f.Range.Apply(q, "tb.created_at").
		Order("tb.created_at ASC", "tb.id ASC").
		Scan(ctx)

	return bookings, err
}

// SucceededRefunds retrieves succeeded ticket refunds whose order belongs to
// the business. The range applies to the refund, not the order.
func (db *DB) SucceededRefunds(ctx context.Context, f Filter) ([]models.Refund, error) {
	parents := db.bun.NewSelect().
		TableExpr("orders AS po").
		Column("po.id").
		Join("JOIN events AS pe ON pe.id = po.event_id").
		Where("pe.business_id = ?", f.BusinessID)
	if f.EventID != "" {
		parents = parents.Where("po.event_id = ?", f.EventID)
	}

	var refunds []models.Refund
	q := db.bun.NewSelect().
		Model(&refunds).
		Where("r.status = ?", models.RefundStatusSucceeded).
		Where("r.order_id IN (?)", parents)
	err := f.Range.Apply(q, "r.created_at").
		Order("r.created_at ASC", "r.id ASC").
		Scan(ctx)

	return refunds, err
}

// SucceededTableRefunds retrieves succeeded table booking refunds for the business
func (db *DB) SucceededTableRefunds(ctx context.Context, f Filter) ([]models.TableBookingRefund, error) {
	parents := db.bun.NewSelect().
		TableExpr("table_bookings AS pb").
		Column("pb.id").
		Join("JOIN events AS pe ON pe.id = pb.event_id").
		Where("pe.business_id = ?", f.BusinessID)
	if f.EventID != "" {
		parents = parents.Where("pb.event_id = ?", f.EventID)
	}

	var refunds []models.TableBookingRefund
	q := db.bun.NewSelect().
		Model(&refunds).
		Where("tbr.status = ?", models.RefundStatusSucceeded).
		Where("tbr.table_booking_id IN (?)", parents)
	err := f.Range.Apply(q, "tbr.created_at").
		Order("tbr.created_at ASC", "tbr.id ASC").
		Scan(ctx)

	return refunds, err
}

type parentRow struct {
	ID      string `bun:"id"`
	EventID string `bun:"event_id"`
}

// ParentEvents maps every order and booking of the business to its event,
// ignoring status and date range
func (db *DB) ParentEvents(ctx context.Context, f Filter) (ParentIndex, error) {
	idx := ParentIndex{
		Orders:   make(map[string]string),
		Bookings: make(map[string]string),
	}

	var orders []parentRow
	err := db.bun.NewSelect().
		TableExpr("orders AS po").
		Column("po.id", "po.event_id").
		Join("JOIN events AS pe ON pe.id = po.event_id").
		Where("pe.business_id = ?", f.BusinessID).
		Scan(ctx, &orders)
	if err != nil {
		return ParentIndex{}, err
	}

	var bookings []parentRow
	err = db.bun.NewSelect().
		TableExpr("table_bookings AS pb").
		Column("pb.id", "pb.event_id").
		Join("JOIN events AS pe ON pe.id = pb.event_id").
		Where("pe.business_id = ?", f.BusinessID).
		Scan(ctx, &bookings)
	if err != nil {
		return ParentIndex{}, err
	}

	for _, row := range orders {
		idx.Orders[row.ID] = row.EventID
	}
	for _, row := range bookings {
		idx.Bookings[row.ID] = row.EventID
	}
	return idx, nil
}

// Business retrieves a business by id, returning nil when it does not exist
func (db *DB) Business(ctx context.Context, businessID string) (*models.Business, error) {
	business := new(models.Business)
	err := db.bun.NewSelect().
		Model(business).
		Where("b.id = ?", businessID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return business, nil
}

// EventIDs lists the business's event ids
func (db *DB) EventIDs(ctx context.Context, f Filter) ([]string, error) {
	var ids []string
	q := db.bun.NewSelect().
		Model((*models.Event)(nil)).
		Column("e.id").
		Where("e.business_id = ?", f.BusinessID)
	if f.EventID != "" {
		q = q.Where("e.id = ?", f.EventID)
	}
	err := q.Order("e.id ASC").Scan(ctx, &ids)

	return ids, err
}

// TrackedOrders retrieves completed orders carrying a tracking ref on the given events
func (db *DB) TrackedOrders(ctx context.Context, eventIDs []string, r DateRange) ([]models.Order, error) {
	var orders []models.Order
	if len(eventIDs) == 0 {
		return orders, nil
	}
	q := db.bun.NewSelect().
		Model(&orders).
		Where("o.event_id IN (?)", bun.In(eventIDs)).
		Where("o.status = ?", models.OrderStatusCompleted).
		Where("o.tracking_ref IS NOT NULL").
		Where("o.tracking_ref <> ''")
	err := r.Apply(q, "o.created_at").
		Order("o.created_at ASC", "o.id ASC").
		Scan(ctx)

	return orders, err
}

// TrackedBookings retrieves revenue-bearing bookings carrying a tracking ref
func (db *DB) TrackedBookings(ctx context.Context, eventIDs []string, r DateRange) ([]models.TableBooking, error) {
	var bookings []models.TableBooking
	if len(eventIDs) == 0 {
		return bookings, nil
	}
	q := db.bun.NewSelect().
		Model(&bookings).
		Where("tb.event_id IN (?)", bun.In(eventIDs)).
		Where("tb.status IN (?)", bun.In(models.BookingSuccessStatuses)).
		Where("tb.tracking_ref IS NOT NULL").
		Where("tb.tracking_ref <> ''")
	err := r.Apply(q, "tb.created_at").
		Order("tb.created_at ASC", "tb.id ASC").
		Scan(ctx)

	return bookings, err
}

// TrackingLinkNames maps the business's registered ref codes to display names
func (db *DB) TrackingLinkNames(ctx context.Context, businessID string) (map[string]string, error) {
	var links []models.TrackingLink
	err := db.bun.NewSelect().
		Model(&links).
		Where("tl.business_id = ?", businessID).
		Order("tl.created_at ASC", "tl.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(links))
	for _, link := range links {
		if _, seen := names[link.RefCode]; !seen {
			names[link.RefCode] = link.Name
		}
	}
	return names, nil
}

// PageViews retrieves page views for the business in range
func (db *DB) PageViews(ctx context.Context, f Filter) ([]models.PageView, error) {
	var views []models.PageView
	q := db.bun.NewSelect().
		Model(&views).
		Where("pv.business_id = ?", f.BusinessID)
	if f.EventID != "" {
		q = q.Where("pv.event_id = ?", f.EventID)
	}
	err := f.Range.Apply(q, "pv.created_at").
		Order("pv.created_at ASC", "pv.id ASC").
		Scan(ctx)

	return views, err
}
