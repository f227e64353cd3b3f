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

type attributionAcc struct {
	ref           string
	ticketOrders  int
	tableBookings int
	ticketsSold   int
	ticketRevenue decimal.Decimal
	tableRevenue  decimal.Decimal
	tax           decimal.Decimal
	customerFees  decimal.Decimal
	businessFees  decimal.Decimal
	lastActivity  time.Time
}

func (a *attributionAcc) touch(t time.Time) {
	if t.After(a.lastActivity) {
		a.lastActivity = t
	}
}

// orderRevenue is the discounted ticket price plus tax. Rows without a
// stored subtotal fall back to the normalized one, which is already
// net of discount.
func orderRevenue(o models.Order, b Breakdown) decimal.Decimal {
	subtotal := money(o.Subtotal)
	if subtotal.IsZero() {
		return b.Subtotal.Add(b.Tax)
	}
	return subtotal.Sub(money(o.DiscountAmount)).Add(b.Tax)
}

// bookingRevenue is the booking base amount plus tax
func bookingRevenue(b Breakdown) decimal.Decimal {
	return b.Subtotal.Add(b.Tax)
}

func (a *attributionAcc) revenue() decimal.Decimal {
	return a.ticketRevenue.Add(a.tableRevenue)
}

func (a *attributionAcc) summary(names map[string]string) TrackingLinkAnalytics {
	revenue := a.revenue()
	row := TrackingLinkAnalytics{
		RefCode:          a.ref,
		TicketOrders:     a.ticketOrders,
		TableBookings:    a.tableBookings,
		TotalOrders:      a.ticketOrders + a.tableBookings,
		TicketsSold:      a.ticketsSold,
		TicketRevenue:    toFloat(a.ticketRevenue),
		TableRevenue:     toFloat(a.tableRevenue),
		TotalRevenue:     toFloat(revenue),
		TotalTax:         toFloat(a.tax),
		CustomerPaidFees: toFloat(a.customerFees),
		BusinessPaidFees: toFloat(a.businessFees),
		ActualTotal:      toFloat(revenue.Sub(a.businessFees)),
		Derived:          Derive(revenue.Sub(a.tax), a.tax, a.businessFees, decimal.Zero),
	}
	if name, ok := names[a.ref]; ok {
		n := name
		row.LinkName = &n
	}
	if !a.lastActivity.IsZero() {
		t := a.lastActivity
		row.LastActivity = &t
	}
	return row
}

// GetTrackingLinkAnalytics groups tracked orders and bookings by tracking
// ref. Unregistered refs are still reported, without a link name.
func (s *Service) GetTrackingLinkAnalytics(ctx context.Context, f Filter) ([]TrackingLinkAnalytics, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	eventIDs, err := s.store.EventIDs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch business events: %w", err)
	}
	if len(eventIDs) == 0 {
		return []TrackingLinkAnalytics{}, nil
	}

	var (
		orders   []models.Order
		bookings []models.TableBooking
		names    map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.store.TrackedOrders(gctx, eventIDs, f.Range)
		if err != nil {
			return fmt.Errorf("failed to fetch tracked orders: %w", err)
		}
		orders = rows
		return nil
	})
	s.secondary(g, gctx, "tracked bookings", func(ctx context.Context) error {
		rows, err := s.store.TrackedBookings(ctx, eventIDs, f.Range)
		if err != nil {
			return err
		}
		bookings = rows
		return nil
	})
	s.secondary(g, gctx, "tracking link names", func(ctx context.Context) error {
		m, err := s.store.TrackingLinkNames(ctx, f.BusinessID)
		if err != nil {
			return err
		}
		names = m
		return nil
	})

	if err := wait(ctx, g); err != nil {
		return nil, err
	}

	return aggregateAttribution(orders, bookings, names), nil
}

func aggregateAttribution(orders []models.Order, bookings []models.TableBooking, names map[string]string) []TrackingLinkAnalytics {
	byRef := make(map[string]*attributionAcc)
	var seen []*attributionAcc

	get := func(ref string) *attributionAcc {
		if acc, ok := byRef[ref]; ok {
			return acc
		}
		acc := &attributionAcc{ref: ref}
		byRef[ref] = acc
		seen = append(seen, acc)
		return acc
	}

	for _, o := range orders {
		if o.TrackingRef == "" {
			continue
		}
		b := NormalizeOrder(o)
		acc := get(o.TrackingRef)
		acc.ticketOrders++
		acc.ticketsSold += o.Quantity
		acc.ticketRevenue = acc.ticketRevenue.Add(orderRevenue(o, b))
		acc.tax = acc.tax.Add(b.Tax)
		acc.customerFees = acc.customerFees.Add(b.CustomerPaidFees)
		acc.businessFees = acc.businessFees.Add(b.BusinessPaidFees)
		acc.touch(o.CreatedAt)
	}

	for _, tb := range bookings {
		if tb.TrackingRef == "" {
			continue
		}
		b := NormalizeBooking(tb)
		acc := get(tb.TrackingRef)
		acc.tableBookings++
		acc.tableRevenue = acc.tableRevenue.Add(bookingRevenue(b))
		acc.tax = acc.tax.Add(b.Tax)
		acc.customerFees = acc.customerFees.Add(b.CustomerPaidFees)
		acc.businessFees = acc.businessFees.Add(b.BusinessPaidFees)
		acc.touch(tb.CreatedAt)
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return seen[i].revenue().GreaterThan(seen[j].revenue())
	})

	out := make([]TrackingLinkAnalytics, 0, len(seen))
	for _, acc := range seen {
		out = append(out, acc.summary(names))
	}
	return out
}
