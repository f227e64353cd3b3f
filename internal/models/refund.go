package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Refund is appended for a ticket order. It reaches its event only
// through OrderID.
type Refund struct {
	bun.BaseModel `bun:"table:refunds,alias:r"`

	ID        string    `bun:"id,pk" json:"id"`
	OrderID   string    `bun:"order_id,notnull" json:"order_id"`
	Amount    Amount    `bun:"amount,type:numeric" json:"amount"`
	Status    string    `bun:"status,notnull" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
}

// TableBookingRefund is appended for a table booking
type TableBookingRefund struct {
	bun.BaseModel `bun:"table:table_booking_refunds,alias:tbr"`

	ID             string    `bun:"id,pk" json:"id"`
	TableBookingID string    `bun:"table_booking_id,notnull" json:"table_booking_id"`
	Amount         Amount    `bun:"amount,type:numeric" json:"amount"`
	Status         string    `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}
