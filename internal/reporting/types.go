package reporting

import "time"

// TicketSummary aggregates completed ticket orders.
// GrossRevenue is the sum of charged totals; Derived.Gross is subtotal plus tax.
type TicketSummary struct {
	Orders           int     `json:"orders"`
	TicketsSold      int     `json:"tickets_sold"`
	Subtotal         float64 `json:"subtotal"`
	GrossRevenue     float64 `json:"gross_revenue"`
	NetRevenue       float64 `json:"net_revenue"`
	Fees             float64 `json:"fees"`
	Tax              float64 `json:"tax"`
	CustomerPaidFees float64 `json:"customer_paid_fees"`
	BusinessPaidFees float64 `json:"business_paid_fees"`
	Refunds          float64 `json:"refunds"`
	Derived          Derived `json:"derived"`
}

// TableSummary aggregates revenue-bearing table bookings.
// Revenue is the sum of base amounts and never contains fees.
type TableSummary struct {
	Bookings         int     `json:"bookings"`
	Revenue          float64 `json:"revenue"`
	Tax              float64 `json:"tax"`
	Fees             float64 `json:"fees"`
	CustomerPaidFees float64 `json:"customer_paid_fees"`
	BusinessPaidFees float64 `json:"business_paid_fees"`
	Refunds          float64 `json:"refunds"`
	Derived          Derived `json:"derived"`
}

// EventSummary is one event's bucket
type EventSummary struct {
	EventID      string        `json:"event_id"`
	EventTitle   string        `json:"event_title"`
	EventDate    *time.Time    `json:"event_date,omitempty"`
	Ticket       TicketSummary `json:"ticket"`
	Table        TableSummary  `json:"table"`
	TotalRevenue float64       `json:"total_revenue"`
	TotalRefunds float64       `json:"total_refunds"`
}

// BusinessAnalytics is the business-wide view for one range
type BusinessAnalytics struct {
	BusinessID         string         `json:"business_id"`
	TaxPercentage      *float64       `json:"tax_percentage"`
	From               *time.Time     `json:"from,omitempty"`
	To                 *time.Time     `json:"to,omitempty"`
	TotalRevenue       float64        `json:"total_revenue"`
	TotalTaxCollected  float64        `json:"total_tax_collected"`
	TotalTicketsSold   int            `json:"total_tickets_sold"`
	TotalOrders        int            `json:"total_orders"`
	TotalTableBookings int            `json:"total_table_bookings"`
	TotalTableRevenue  float64        `json:"total_table_revenue"`
	TotalTicketRefunds float64        `json:"total_ticket_refunds"`
	TotalTableRefunds  float64        `json:"total_table_refunds"`
	TotalRefunds       float64        `json:"total_refunds"`
	RefundCount        int            `json:"refund_count"`
	Ticket             TicketSummary  `json:"ticket"`
	Table              TableSummary   `json:"table"`
	Events             []EventSummary `json:"events"`
}

// TrackingLinkAnalytics is the attribution row for one tracking ref
type TrackingLinkAnalytics struct {
	RefCode          string     `json:"ref_code"`
	LinkName         *string    `json:"link_name"`
	TicketOrders     int        `json:"ticket_orders"`
	TableBookings    int        `json:"table_bookings"`
	TotalOrders      int        `json:"total_orders"`
	TicketsSold      int        `json:"tickets_sold"`
	TicketRevenue    float64    `json:"ticket_revenue"`
	TableRevenue     float64    `json:"table_revenue"`
	TotalRevenue     float64    `json:"total_revenue"`
	TotalTax         float64    `json:"total_tax"`
	CustomerPaidFees float64    `json:"customer_paid_fees"`
	BusinessPaidFees float64    `json:"business_paid_fees"`
	ActualTotal      float64    `json:"actual_total"`
	Derived          Derived    `json:"derived"`
	LastActivity     *time.Time `json:"last_activity"`
}

// DailyViews is one day of the page view series
type DailyViews struct {
	Date           string `json:"date"`
	Views          int    `json:"views"`
	UniqueVisitors int    `json:"unique_visitors"`
}

// PageViewStats summarizes storefront traffic for one range
type PageViewStats struct {
	BusinessID      string         `json:"business_id"`
	TotalViews      int            `json:"total_views"`
	UniqueVisitors  int            `json:"unique_visitors"`
	ViewsByPageType map[string]int `json:"views_by_page_type"`
	Daily           []DailyViews   `json:"daily"`
}
