package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ms-reporting/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ticketAcc struct {
	orders       int
	tickets      int
	subtotal     decimal.Decimal
	gross        decimal.Decimal
	net          decimal.Decimal
	tax          decimal.Decimal
	customerFees decimal.Decimal
	businessFees decimal.Decimal
	refunds      decimal.Decimal
}

func (a *ticketAcc) add(o models.Order, b Breakdown) {
	a.orders++
	a.tickets += o.Quantity
	a.subtotal = a.subtotal.Add(b.Subtotal)
	a.gross = a.gross.Add(money(o.Total))
	a.net = a.net.Add(b.NetToBusiness)
	a.tax = a.tax.Add(b.Tax)
	a.customerFees = a.customerFees.Add(b.CustomerPaidFees)
	a.businessFees = a.businessFees.Add(b.BusinessPaidFees)
}

func (a *ticketAcc) summary() TicketSummary {
	return TicketSummary{
		Orders:           a.orders,
		TicketsSold:      a.tickets,
		Subtotal:         toFloat(a.subtotal),
		GrossRevenue:     toFloat(a.gross),
		NetRevenue:       toFloat(a.net),
		Fees:             toFloat(a.customerFees.Add(a.businessFees)),
		Tax:              toFloat(a.tax),
		CustomerPaidFees: toFloat(a.customerFees),
		BusinessPaidFees: toFloat(a.businessFees),
		Refunds:          toFloat(a.refunds),
		Derived:          Derive(a.subtotal, a.tax, a.businessFees, a.refunds),
	}
}

type tableAcc struct {
	bookings     int
	revenue      decimal.Decimal
	tax          decimal.Decimal
	customerFees decimal.Decimal
	businessFees decimal.Decimal
	refunds      decimal.Decimal
}

func (a *tableAcc) add(b Breakdown) {
	a.bookings++
	a.revenue = a.revenue.Add(b.Subtotal)
	a.tax = a.tax.Add(b.Tax)
	a.customerFees = a.customerFees.Add(b.CustomerPaidFees)
	a.businessFees = a.businessFees.Add(b.BusinessPaidFees)
}

func (a *tableAcc) summary() TableSummary {
	return TableSummary{
		Bookings:         a.bookings,
		Revenue:          toFloat(a.revenue),
		Tax:              toFloat(a.tax),
		Fees:             toFloat(a.customerFees.Add(a.businessFees)),
		CustomerPaidFees: toFloat(a.customerFees),
		BusinessPaidFees: toFloat(a.businessFees),
		Refunds:          toFloat(a.refunds),
		Derived:          Derive(a.revenue, a.tax, a.businessFees, a.refunds),
	}
}

// totalRevenue is ticket net plus table base revenue. Table revenue is not
// netted of fees here.
func totalRevenue(t *ticketAcc, tb *tableAcc) decimal.Decimal {
	return t.net.Add(tb.revenue)
}

type eventBucket struct {
	id     string
	title  string
	date   time.Time
	ticket ticketAcc
	table  tableAcc
}

func (b *eventBucket) describe(e *models.Event) {
	if e == nil || b.title != "" {
		return
	}
	b.title = e.Title
	b.date = e.EventDate
}

func (b *eventBucket) summary() EventSummary {
	s := EventSummary{
		EventID:      b.id,
		EventTitle:   b.title,
		Ticket:       b.ticket.summary(),
		Table:        b.table.summary(),
		TotalRevenue: toFloat(totalRevenue(&b.ticket, &b.table)),
		TotalRefunds: toFloat(b.ticket.refunds.Add(b.table.refunds)),
	}
	if !b.date.IsZero() {
		d := b.date
		s.EventDate = &d
	}
	return s
}

// buckets keeps per-event accumulators in first-seen order
type buckets struct {
	byID  map[string]*eventBucket
	order []*eventBucket
}

func newBuckets() *buckets {
	return &buckets{byID: make(map[string]*eventBucket)}
}

func (bs *buckets) get(eventID string) *eventBucket {
	if b, ok := bs.byID[eventID]; ok {
		return b
	}
	b := &eventBucket{id: eventID}
	bs.byID[eventID] = b
	bs.order = append(bs.order, b)
	return b
}

func (bs *buckets) lookup(eventID string) (*eventBucket, bool) {
	b, ok := bs.byID[eventID]
	return b, ok
}

// businessInputs is everything one business aggregation reads
type businessInputs struct {
	business     *models.Business
	orders       []models.Order
	bookings     []models.TableBooking
	refunds      []models.Refund
	tableRefunds []models.TableBookingRefund
	parents      ParentIndex
}

// GetBusinessAnalytics builds the business-wide view with per-event buckets.
// Only a failed orders query fails the call.
func (s *Service) GetBusinessAnalytics(ctx context.Context, f Filter) (*BusinessAnalytics, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var in businessInputs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		orders, err := s.store.CompletedOrders(gctx, f)
		if err != nil {
			return fmt.Errorf("failed to fetch completed orders: %w", err)
		}
		in.orders = orders
		return nil
	})
	s.secondary(g, gctx, "table bookings", func(ctx context.Context) error {
		bookings, err := s.store.ActiveBookings(ctx, f)
		if err != nil {
			return err
		}
		in.bookings = bookings
		return nil
	})
	s.secondary(g, gctx, "ticket refunds", func(ctx context.Context) error {
		refunds, err := s.store.SucceededRefunds(ctx, f)
		if err != nil {
			return err
		}
		in.refunds = refunds
		return nil
	})
	s.secondary(g, gctx, "table booking refunds", func(ctx context.Context) error {
		refunds, err := s.store.SucceededTableRefunds(ctx, f)
		if err != nil {
			return err
		}
		in.tableRefunds = refunds
		return nil
	})
	s.secondary(g, gctx, "refund parent index", func(ctx context.Context) error {
		parents, err := s.store.ParentEvents(ctx, f)
		if err != nil {
			return err
		}
		in.parents = parents
		return nil
	})
	s.secondary(g, gctx, "business", func(ctx context.Context) error {
		business, err := s.store.Business(ctx, f.BusinessID)
		if err != nil {
			return err
		}
		in.business = business
		return nil
	})

	if err := wait(ctx, g); err != nil {
		return nil, err
	}

	out := aggregateBusiness(f, in)
	s.logger.Debug("REPORTING", fmt.Sprintf("business %s analytics: %d orders, %d bookings, %d refunds, %d events",
		f.BusinessID, out.TotalOrders, out.TotalTableBookings, out.RefundCount, len(out.Events)))
	return out, nil
}

// aggregateBusiness reduces materialized rows in one pass, updating the
// business totals together with the event buckets
func aggregateBusiness(f Filter, in businessInputs) *BusinessAnalytics {
	var (
		ticket ticketAcc
		table  tableAcc
		bs     = newBuckets()
	)

	for _, o := range in.orders {
		b := NormalizeOrder(o)
		ticket.add(o, b)
		bucket := bs.get(o.EventID)
		bucket.describe(o.Event)
		bucket.ticket.add(o, b)
	}

	for _, tb := range in.bookings {
		b := NormalizeBooking(tb)
		table.add(b)
		bucket := bs.get(tb.EventID)
		bucket.describe(tb.Event)
		bucket.table.add(b)
	}

	for _, r := range in.refunds {
		amount := money(r.Amount)
		ticket.refunds = ticket.refunds.Add(amount)
		if bucket, ok := bs.lookup(in.parents.Orders[r.OrderID]); ok {
			bucket.ticket.refunds = bucket.ticket.refunds.Add(amount)
		}
	}

	for _, r := range in.tableRefunds {
		amount := money(r.Amount)
		table.refunds = table.refunds.Add(amount)
		if bucket, ok := bs.lookup(in.parents.Bookings[r.TableBookingID]); ok {
			bucket.table.refunds = bucket.table.refunds.Add(amount)
		}
	}

	type ranked struct {
		summary EventSummary
		revenue decimal.Decimal
	}
	rows := make([]ranked, 0, len(bs.order))
	for _, bucket := range bs.order {
		rows = append(rows, ranked{
			summary: bucket.summary(),
			revenue: totalRevenue(&bucket.ticket, &bucket.table),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].revenue.GreaterThan(rows[j].revenue)
	})

	events := make([]EventSummary, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.summary)
	}

	out := &BusinessAnalytics{
		BusinessID:         f.BusinessID,
		From:               f.Range.From,
		To:                 f.Range.To,
		TotalRevenue:       toFloat(totalRevenue(&ticket, &table)),
		TotalTaxCollected:  toFloat(ticket.tax.Add(table.tax)),
		TotalTicketsSold:   ticket.tickets,
		TotalOrders:        ticket.orders,
		TotalTableBookings: table.bookings,
		TotalTableRevenue:  toFloat(table.revenue),
		TotalTicketRefunds: toFloat(ticket.refunds),
		TotalTableRefunds:  toFloat(table.refunds),
		TotalRefunds:       toFloat(ticket.refunds.Add(table.refunds)),
		RefundCount:        len(in.refunds) + len(in.tableRefunds),
		Ticket:             ticket.summary(),
		Table:              table.summary(),
		Events:             events,
	}
	if in.business != nil {
		out.TaxPercentage = in.business.TaxPercentage
	}
	return out
}
